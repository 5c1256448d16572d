package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/andripurnama/mobile-auth-api/internal/logger"
	"github.com/andripurnama/mobile-auth-api/internal/models"
	"github.com/andripurnama/mobile-auth-api/internal/repositories"
)

// Mode selects how credentials are stored and checked.
type Mode string

const (
	// ModeHashed stores bcrypt password hashes and does not check devices.
	ModeHashed Mode = "hashed"
	// ModeDevice stores plaintext passwords and binds each account to the
	// device identifier supplied at registration.
	ModeDevice Mode = "device"
)

// Error variables
var (
	ErrUserAlreadyExists = errors.New("username already exists")
	ErrUserDoesNotExist  = errors.New("username does not exist")
	ErrInvalidPassword   = errors.New("invalid password")
)

// DeviceMismatchError is returned by Login in device mode when the stored
// device identifier does not match the supplied one. Both identifiers are
// exposed truncated only.
type DeviceMismatchError struct {
	Registered string
	Supplied   string
}

func (e *DeviceMismatchError) Error() string {
	return fmt.Sprintf(
		"AKSES DITOLAK: Device tidak dikenali!\n\nRegistered Device: %s\nCurrent Device: %s",
		TruncateDeviceID(e.Registered), TruncateDeviceID(e.Supplied),
	)
}

// TruncateDeviceID shortens a device identifier to its first 8 characters
// followed by an ellipsis. Identifiers shorter than 8 characters are kept
// whole, the ellipsis is always appended. Counted in runes so a multibyte
// identifier is never cut mid-character.
func TruncateDeviceID(id string) string {
	r := []rune(id)
	if len(r) > 8 {
		r = r[:8]
	}
	return string(r) + "..."
}

// startTime is used to report process uptime on the health endpoint.
var startTime = time.Now()

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*models.UserDB, error)
	CountAll(ctx context.Context) (int64, error)
	ListNewestFirst(ctx context.Context) ([]models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, username, password, androidID string) (int64, error)
}

// CountCache caches the total user count.
type CountCache interface {
	Get(ctx context.Context) (int64, error)
	Set(ctx context.Context, total int64) error
	Invalidate(ctx context.Context) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// RegistrationResult is returned by Register on success.
type RegistrationResult struct {
	UserID     int64
	Username   string
	AndroidID  string
	TotalUsers int64
}

// AccountService handles registration, login, and lookups for one mode.
type AccountService struct {
	mode        Mode
	reader      UserReader
	writer      UserWriter
	countCache  CountCache
	kafkaWriter KafkaWriter
}

// NewAccountService creates a new AccountService instance.
// countCache and kafkaWriter may be nil; both are optional.
func NewAccountService(mode Mode, reader UserReader, writer UserWriter, countCache CountCache, kafkaWriter KafkaWriter) *AccountService {
	return &AccountService{
		mode:        mode,
		reader:      reader,
		writer:      writer,
		countCache:  countCache,
		kafkaWriter: kafkaWriter,
	}
}

// Mode returns the configured credential mode.
func (svc *AccountService) Mode() Mode {
	return svc.mode
}

// Register creates a new user. The credential is hashed in hashed mode and
// stored as-is in device mode. Uniqueness is ultimately enforced by the
// store constraint; the pre-read only produces the friendly conflict early.
func (svc *AccountService) Register(ctx context.Context, username, password, androidID string) (*RegistrationResult, error) {
	existing, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "username", username, "err", err)
		return nil, err
	}
	if existing != nil {
		logger.Log.Errorw("user already exists", "username", username)
		return nil, ErrUserAlreadyExists
	}

	credential := password
	if svc.mode == ModeHashed {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			logger.Log.Errorw("failed to hash password", "err", err)
			return nil, err
		}
		credential = string(hashed)
	}

	id, err := svc.writer.Save(ctx, username, credential, androidID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			logger.Log.Errorw("user already exists", "username", username)
			return nil, ErrUserAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "username", username, "err", err)
		return nil, err
	}

	result := &RegistrationResult{
		UserID:    id,
		Username:  username,
		AndroidID: androidID,
	}

	if svc.mode == ModeHashed {
		// Best-effort snapshot, not transactional with the insert.
		total, err := svc.reader.CountAll(ctx)
		if err != nil {
			logger.Log.Errorw("failed to count users after register", "err", err)
			return nil, err
		}
		result.TotalUsers = total

		if svc.countCache != nil {
			if err := svc.countCache.Set(ctx, total); err != nil {
				logger.Log.Errorw("failed to cache user count", "err", err)
			}
		}
	} else if svc.countCache != nil {
		if err := svc.countCache.Invalidate(ctx); err != nil {
			logger.Log.Errorw("failed to invalidate user count cache", "err", err)
		}
	}

	svc.publishAccountEvent(ctx, "register", username)

	return result, nil
}

// Login authenticates a user. In device mode the supplied device identifier
// must exactly equal the one bound at registration.
func (svc *AccountService) Login(ctx context.Context, username, password, androidID string) (*models.UserDB, error) {
	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to get user", "username", username, "err", err)
		return nil, err
	}
	if user == nil {
		logger.Log.Errorw("user does not exist", "username", username)
		return nil, ErrUserDoesNotExist
	}

	if svc.mode == ModeHashed {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			logger.Log.Errorw("invalid credentials", "username", username)
			return nil, ErrInvalidPassword
		}
	} else {
		if user.Password != password {
			logger.Log.Errorw("invalid credentials", "username", username)
			return nil, ErrInvalidPassword
		}
		if user.AndroidID != androidID {
			logger.Log.Errorw("device mismatch", "username", username)
			return nil, &DeviceMismatchError{
				Registered: user.AndroidID,
				Supplied:   androidID,
			}
		}
	}

	svc.publishAccountEvent(ctx, "login", username)

	return user, nil
}

// ListUsers returns every user row, newest first.
func (svc *AccountService) ListUsers(ctx context.Context) ([]models.UserDB, error) {
	users, err := svc.reader.ListNewestFirst(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list users", "err", err)
		return nil, err
	}
	return users, nil
}

// CheckUsername reports whether a username is taken. Absence is a normal
// outcome, not an error.
func (svc *AccountService) CheckUsername(ctx context.Context, username string) (bool, error) {
	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to check username", "username", username, "err", err)
		return false, err
	}
	return user != nil, nil
}

// DeviceID returns the device identifier bound to the username.
func (svc *AccountService) DeviceID(ctx context.Context, username string) (string, error) {
	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.Log.Errorw("failed to get device id", "username", username, "err", err)
		return "", err
	}
	if user == nil {
		return "", ErrUserDoesNotExist
	}
	return user.AndroidID, nil
}

// TotalUsers returns the total user count, served from the cache when one
// is configured and falling back to the store.
func (svc *AccountService) TotalUsers(ctx context.Context) (int64, error) {
	if svc.countCache != nil {
		if total, err := svc.countCache.Get(ctx); err == nil {
			return total, nil
		}
	}

	total, err := svc.reader.CountAll(ctx)
	if err != nil {
		logger.Log.Errorw("failed to count users", "err", err)
		return 0, err
	}

	if svc.countCache != nil {
		if err := svc.countCache.Set(ctx, total); err != nil {
			logger.Log.Errorw("failed to cache user count", "err", err)
		}
	}

	return total, nil
}

// CountUsers runs a direct row count against the store, bypassing the
// cache. The health endpoint uses it as a connectivity probe.
func (svc *AccountService) CountUsers(ctx context.Context) (int64, error) {
	return svc.reader.CountAll(ctx)
}

// Uptime returns seconds elapsed since process start.
func (svc *AccountService) Uptime() float64 {
	return time.Since(startTime).Seconds()
}

// publishAccountEvent publishes an account event to Kafka. Failures are
// logged and never surfaced to the caller.
func (svc *AccountService) publishAccountEvent(ctx context.Context, operation, username string) {
	if svc.kafkaWriter == nil {
		return
	}

	event := models.AccountEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Operation: operation,
		Username:  username,
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal account event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(username),
		Value: data,
	}

	if err := svc.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish account event to Kafka", "event_id", event.EventID, "error", err)
	} else {
		logger.Log.Infow("Account event published to Kafka", "event_id", event.EventID, "operation", operation)
	}
}
