package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/andripurnama/mobile-auth-api/internal/models"
	"github.com/andripurnama/mobile-auth-api/internal/repositories"
	"github.com/andripurnama/mobile-auth-api/internal/services"
)

func TestAccountService_Register_Hashed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("successful registration hashes the password", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

		var storedCredential string
		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, nil)
		mockWriter.EXPECT().
			Save(gomock.Any(), "alice", gomock.Any(), "").
			DoAndReturn(func(_ context.Context, _, credential, _ string) (int64, error) {
				storedCredential = credential
				return 1, nil
			})
		mockReader.EXPECT().CountAll(gomock.Any()).Return(int64(1), nil)

		result, err := svc.Register(context.Background(), "alice", "secret1", "")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.UserID)
		assert.Equal(t, "alice", result.Username)
		assert.Equal(t, int64(1), result.TotalUsers)

		assert.NotEqual(t, "secret1", storedCredential)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedCredential), []byte("secret1")))
	})

	t.Run("existing username", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(&models.UserDB{ID: 1, Username: "alice"}, nil)

		_, err := svc.Register(context.Background(), "alice", "secret1", "")
		assert.ErrorIs(t, err, services.ErrUserAlreadyExists)
	})

	t.Run("constraint violation from a concurrent registration", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, nil)
		mockWriter.EXPECT().
			Save(gomock.Any(), "alice", gomock.Any(), "").
			Return(int64(0), repositories.ErrDuplicateUsername)

		_, err := svc.Register(context.Background(), "alice", "secret1", "")
		assert.ErrorIs(t, err, services.ErrUserAlreadyExists)
	})

	t.Run("reader error", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, errors.New("db error"))

		_, err := svc.Register(context.Background(), "alice", "secret1", "")
		assert.EqualError(t, err, "db error")
	})

	t.Run("count error after insert", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, nil)
		mockWriter.EXPECT().Save(gomock.Any(), "alice", gomock.Any(), "").Return(int64(1), nil)
		mockReader.EXPECT().CountAll(gomock.Any()).Return(int64(0), errors.New("count error"))

		_, err := svc.Register(context.Background(), "alice", "secret1", "")
		assert.EqualError(t, err, "count error")
	})
}

func TestAccountService_Register_Device(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("stores credential as-is and binds the device", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)
		mockCache := services.NewMockCountCache(ctrl)

		svc := services.NewAccountService(services.ModeDevice, mockReader, mockWriter, mockCache, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, nil)
		mockWriter.EXPECT().Save(gomock.Any(), "alice", "secret1", "device-aaa").Return(int64(1), nil)
		mockCache.EXPECT().Invalidate(gomock.Any()).Return(nil)

		result, err := svc.Register(context.Background(), "alice", "secret1", "device-aaa")
		assert.NoError(t, err)
		assert.Equal(t, "alice", result.Username)
		assert.Equal(t, "device-aaa", result.AndroidID)
	})

	t.Run("publishes a register event", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)
		mockKafka := services.NewMockKafkaWriter(ctrl)

		svc := services.NewAccountService(services.ModeDevice, mockReader, mockWriter, nil, mockKafka)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, nil)
		mockWriter.EXPECT().Save(gomock.Any(), "alice", "secret1", "device-aaa").Return(int64(1), nil)
		mockKafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.Register(context.Background(), "alice", "secret1", "device-aaa")
		assert.NoError(t, err)
	})

	t.Run("publish failure does not fail registration", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)
		mockKafka := services.NewMockKafkaWriter(ctrl)

		svc := services.NewAccountService(services.ModeDevice, mockReader, mockWriter, nil, mockKafka)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, nil)
		mockWriter.EXPECT().Save(gomock.Any(), "alice", "secret1", "device-aaa").Return(int64(1), nil)
		mockKafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		_, err := svc.Register(context.Background(), "alice", "secret1", "device-aaa")
		assert.NoError(t, err)
	})
}

func TestAccountService_Login_Hashed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)

	tests := []struct {
		name     string
		password string
		user     *models.UserDB
		wantErr  error
	}{
		{
			name:     "successful login",
			password: "secret1",
			user:     &models.UserDB{ID: 1, Username: "alice", Password: string(hashed)},
		},
		{
			name:     "wrong password",
			password: "wrong",
			user:     &models.UserDB{ID: 1, Username: "alice", Password: string(hashed)},
			wantErr:  services.ErrInvalidPassword,
		},
		{
			name:     "unknown username",
			password: "secret1",
			user:     nil,
			wantErr:  services.ErrUserDoesNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReader := services.NewMockUserReader(ctrl)
			mockWriter := services.NewMockUserWriter(ctrl)

			svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

			mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(tt.user, nil)

			user, err := svc.Login(context.Background(), "alice", tt.password, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "alice", user.Username)
			}
		})
	}
}

func TestAccountService_Login_Device(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stored := &models.UserDB{
		ID:        1,
		Username:  "alice",
		Password:  "secret1",
		AndroidID: "device-aaa-long",
	}

	t.Run("successful login with matching device", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeDevice, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(stored, nil)

		user, err := svc.Login(context.Background(), "alice", "secret1", "device-aaa-long")
		assert.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password checked before device", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeDevice, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(stored, nil)

		_, err := svc.Login(context.Background(), "alice", "wrong", "device-bbb-long")
		assert.ErrorIs(t, err, services.ErrInvalidPassword)
	})

	t.Run("device mismatch never succeeds", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeDevice, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(stored, nil)

		user, err := svc.Login(context.Background(), "alice", "secret1", "device-bbb-long")
		assert.Nil(t, user)

		var mismatch *services.DeviceMismatchError
		assert.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "device-aaa-long", mismatch.Registered)
		assert.Equal(t, "device-bbb-long", mismatch.Supplied)
		assert.Equal(t,
			"AKSES DITOLAK: Device tidak dikenali!\n\nRegistered Device: device-a...\nCurrent Device: device-b...",
			err.Error(),
		)
	})
}

func TestTruncateDeviceID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcdefghij", "abcdefgh..."},
		{"abcdefgh", "abcdefgh..."},
		{"abc", "abc..."},
		{"", "..."},
		// Multibyte identifiers truncate per character, never mid-rune.
		{"устройство-123", "устройст..."},
		{"设备标识符超过八个字符", "设备标识符超过八..."},
		{"привет", "привет..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, services.TruncateDeviceID(tt.in))
	}
}

func TestAccountService_TotalUsers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("cache hit skips the store", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)
		mockCache := services.NewMockCountCache(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, mockCache, nil)

		mockCache.EXPECT().Get(gomock.Any()).Return(int64(7), nil)

		total, err := svc.TotalUsers(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, int64(7), total)
	})

	t.Run("cache miss falls back to the store and refills", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)
		mockCache := services.NewMockCountCache(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, mockCache, nil)

		mockCache.EXPECT().Get(gomock.Any()).Return(int64(0), redis.Nil)
		mockReader.EXPECT().CountAll(gomock.Any()).Return(int64(5), nil)
		mockCache.EXPECT().Set(gomock.Any(), int64(5)).Return(nil)

		total, err := svc.TotalUsers(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})

	t.Run("no cache configured", func(t *testing.T) {
		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)

		svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

		mockReader.EXPECT().CountAll(gomock.Any()).Return(int64(3), nil)

		total, err := svc.TotalUsers(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}

func TestAccountService_CheckUsername(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)

	svc := services.NewAccountService(services.ModeHashed, mockReader, mockWriter, nil, nil)

	mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(&models.UserDB{Username: "alice"}, nil)
	exists, err := svc.CheckUsername(context.Background(), "alice")
	assert.NoError(t, err)
	assert.True(t, exists)

	mockReader.EXPECT().GetByUsername(gomock.Any(), "ghost").Return(nil, nil)
	exists, err = svc.CheckUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestAccountService_DeviceID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)

	svc := services.NewAccountService(services.ModeDevice, mockReader, mockWriter, nil, nil)

	mockReader.EXPECT().GetByUsername(gomock.Any(), "alice").Return(&models.UserDB{Username: "alice", AndroidID: "device-aaa"}, nil)
	id, err := svc.DeviceID(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "device-aaa", id)

	mockReader.EXPECT().GetByUsername(gomock.Any(), "ghost").Return(nil, nil)
	_, err = svc.DeviceID(context.Background(), "ghost")
	assert.ErrorIs(t, err, services.ErrUserDoesNotExist)
}

func TestAccountService_Uptime(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := services.NewAccountService(services.ModeHashed, services.NewMockUserReader(ctrl), services.NewMockUserWriter(ctrl), nil, nil)
	assert.GreaterOrEqual(t, svc.Uptime(), 0.0)
}
