package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
	apperrors "github.com/spec-kit/order-service/pkg/util/errorutil"
)

// UserService registers users on sight and answers role lookups.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// UpsertOutcome reports which branch of the upsert ran.
type UpsertOutcome struct {
	Inserted bool
	Insert   domain.InsertResult
	Update   domain.UpdateResult
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// UpsertUser creates the user on first sight and otherwise refreshes
// last_loggedIn only. Profile fields are kept from the first call.
func (s *UserService) UpsertUser(ctx context.Context, email string, profile map[string]any) (UpsertOutcome, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return UpsertOutcome{}, apperrors.NewInvalidArgument("email required", nil)
	}

	res, err := s.users.UpsertByEmail(ctx, &domain.User{Email: email, Profile: profile}, s.now())
	if err != nil {
		return UpsertOutcome{}, err
	}

	if !res.Inserted() {
		s.logger.Debug("user exists; refreshed last login", zap.String("email", email))
		return UpsertOutcome{Update: res}, nil
	}

	s.logger.Info("registered new user", zap.String("email", email))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventUserRegistered,
		ResourceID: *res.UpsertedID,
		Actor:      events.Actor{Email: email},
		Payload:    events.UserRegisteredPayload{Email: email, Role: string(domain.UserRoleCustomer)},
	})
	return UpsertOutcome{
		Inserted: true,
		Insert:   domain.InsertResult{Acknowledged: res.Acknowledged, InsertedID: *res.UpsertedID},
	}, nil
}

// GetRole returns the role of the user registered under email. found is
// false when no such user exists.
func (s *UserService) GetRole(ctx context.Context, email string) (role domain.UserRole, found bool, err error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return user.Role, true, nil
}
