package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/andripurnama/mobile-auth-api/internal/models"
	"github.com/andripurnama/mobile-auth-api/internal/services"
)

func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name            string
		body            string
		mockSetup       func(m *MockLoginer)
		expectedCode    int
		expectedMessage string
	}{
		{
			name: "success",
			body: `{"username":"alice","password":"secret1"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().
					Login(gomock.Any(), "alice", "secret1", "").
					Return(&models.UserDB{ID: 1, Username: "alice"}, nil)
			},
			expectedCode:    200,
			expectedMessage: "Login berhasil",
		},
		{
			name:            "missing fields",
			body:            `{"username":"alice"}`,
			expectedCode:    400,
			expectedMessage: "Username dan password harus diisi",
		},
		{
			name: "unknown username",
			body: `{"username":"ghost","password":"secret1"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().
					Login(gomock.Any(), "ghost", "secret1", "").
					Return(nil, services.ErrUserDoesNotExist)
			},
			expectedCode:    401,
			expectedMessage: "Username tidak ditemukan",
		},
		{
			name: "wrong password",
			body: `{"username":"alice","password":"wrong"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().
					Login(gomock.Any(), "alice", "wrong", "").
					Return(nil, services.ErrInvalidPassword)
			},
			expectedCode:    401,
			expectedMessage: "Password salah",
		},
		{
			name: "internal server error",
			body: `{"username":"alice","password":"secret1"}`,
			mockSetup: func(m *MockLoginer) {
				m.EXPECT().
					Login(gomock.Any(), "alice", "secret1", "").
					Return(nil, errors.New("database failure"))
			},
			expectedCode:    500,
			expectedMessage: "Server error: database failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := NewMockLoginer(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(mockSvc)
			}

			handler := NewLoginHandler(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			handler(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)

			var resp map[string]any
			assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedMessage, resp["message"])
		})
	}
}

func TestLoginHandler_SuccessPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockLoginer(ctrl)
	mockSvc.EXPECT().
		Login(gomock.Any(), "alice", "secret1", "").
		Return(&models.UserDB{ID: 42, Username: "alice"}, nil)

	handler := NewLoginHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(`{"username":"alice","password":"secret1"}`))
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, 200, rr.Code)

	var resp LoginResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, int64(42), resp.UserID)
}
