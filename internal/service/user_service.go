package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
	"github.com/spec-kit/p2p-exchange-bot/internal/events"
	"github.com/spec-kit/p2p-exchange-bot/internal/repository"
	apperrors "github.com/spec-kit/p2p-exchange-bot/pkg/util"
)

// UserService owns user records: lazy creation, role switches, lookups.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher) *UserService {
	return &UserService{users: users, dispatcher: dispatcher}
}

// GetOrCreate looks a user up by telegram id, inserting a buyer-mode record
// with zeroed stats on first contact. Idempotent for known identities.
func (s *UserService) GetOrCreate(ctx context.Context, telegramID int64, displayName string) (*domain.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	user = &domain.User{
		TelegramID:  telegramID,
		DisplayName: strings.TrimSpace(displayName),
		Role:        domain.RoleBuyer,
	}
	if user.DisplayName == "" {
		user.DisplayName = "Anonymous"
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get fetches a user by internal id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, err
	}
	return user, nil
}

// SetRole switches the user's trading mode. Open deals are not checked;
// deal participation is frozen on the deal row, not derived from role.
func (s *UserService) SetRole(ctx context.Context, userID int64, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventRoleChanged,
		ActorID: userID,
		Payload: events.RoleChangedPayload{UserID: userID, Role: role},
	})
	return s.Get(ctx, userID)
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
