package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "users-api/internal/domain/user"
	apperrors "users-api/pkg/errors"
	"users-api/pkg/logger"
)

// MsgNameAndEmailRequired is returned when a create request lacks a field.
const MsgNameAndEmailRequired = "name and email required"

// Repository defines the interface for user data access operations.
// Implementations return errors from pkg/errors so callers never inspect
// driver-specific error shapes.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)      // Insert and return the assigned id
	GetByID(ctx context.Context, id int64) (*domain.User, error)    // NotFoundError when absent
	List(ctx context.Context) ([]domain.User, error)                // All users, newest id first
	Update(ctx context.Context, id int64, patch domain.Patch) error // NotFoundError when no row matched
	Delete(ctx context.Context, id int64) error                     // NotFoundError when no row matched
}

// Service implements the business logic for user management operations.
// Every repository call is attempted exactly once.
type Service struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of Service with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Service {
	return &Service{repo: r, log: log, validate: validator.New()}
}

// ListUsers returns all users ordered by id descending.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	domainUsers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *fromDomain(&domainUsers[i])
	}
	return users, nil
}

// GetUser retrieves a single user by id.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return fromDomain(u), nil
}

// CreateUser validates presence of name and email, inserts the user and
// returns the stored row including its generated id and created_at.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, s.log)

	if err := s.validate.Struct(in); err != nil {
		log.Warn("create user validation failed", zap.Error(err))
		return nil, apperrors.NewValidationError("", MsgNameAndEmailRequired)
	}

	log.Info("creating user", zap.String("email", in.Email))

	id, err := s.repo.Create(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromDomain(u), nil
}

// UpdateUser applies a partial update and returns the resulting row.
// Empty strings are treated like omitted fields so a stored user never loses
// its name or email.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	patch := domain.Patch{
		Name:  nonEmpty(in.Name),
		Email: nonEmpty(in.Email),
	}

	logger.WithContext(ctx, s.log).Info("updating user",
		zap.Int64("id", in.ID),
		zap.Bool("name", patch.Name != nil),
		zap.Bool("email", patch.Email != nil),
	)

	if err := s.repo.Update(ctx, in.ID, patch); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return fromDomain(u), nil
}

// DeleteUser hard-deletes a user.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	logger.WithContext(ctx, s.log).Info("deleting user", zap.Int64("id", in.ID))
	return s.repo.Delete(ctx, in.ID)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
