package gormrepo

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"users-api/internal/domain/user"
	apperrors "users-api/pkg/errors"
	"users-api/pkg/logger"
)

// UserRepo implements the user Repository on top of a GORM connection pool.
// The same code serves the mysql, postgres and sqlite dialectors.
type UserRepo struct {
	db  *gorm.DB    // pooled GORM connection, owned by the caller
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// Create inserts a new user and returns the id assigned by the database.
func (r *UserRepo) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		err = Classify(err, "failed to create user")
		r.logFailure(ctx, "failed to create user in db", err, zap.String("email", u.Email))
		return 0, err
	}

	logger.WithContext(ctx, r.log).Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves a user by id. A missing row yields a NotFoundError.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Take(&model, "id = ?", id).Error; err != nil {
		err = Classify(err, "failed to get user")
		r.logFailure(ctx, "failed to get user from db", err, zap.Int64("id", id))
		return nil, err
	}

	u := model.toDomain()
	return &u, nil
}

// List returns every user, most recently created first.
func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&models).Error; err != nil {
		err = Classify(err, "failed to list users")
		r.logFailure(ctx, "failed to list users from db", err)
		return nil, err
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}

	return users, nil
}

// Update applies patch to the user in a single statement. Absent fields are
// coalesced to the stored value by the database, so concurrent partial updates
// never overwrite each other's untouched columns.
func (r *UserRepo) Update(ctx context.Context, id int64, patch user.Patch) error {
	res := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":  gorm.Expr("COALESCE(?, name)", nullable(patch.Name)),
			"email": gorm.Expr("COALESCE(?, email)", nullable(patch.Email)),
		})
	if res.Error != nil {
		err := Classify(res.Error, "failed to update user")
		r.logFailure(ctx, "failed to update user in db", err, zap.Int64("id", id))
		return err
	}

	if res.RowsAffected == 0 {
		logger.WithContext(ctx, r.log).Debug("update matched no user", zap.Int64("id", id))
		return apperrors.NewNotFoundError("user", apperrors.MsgNotFound)
	}

	logger.WithContext(ctx, r.log).Info("user updated in db", zap.Int64("id", id))
	return nil
}

// Delete hard-deletes the user by id.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		err := Classify(res.Error, "failed to delete user")
		r.logFailure(ctx, "failed to delete user in db", err, zap.Int64("id", id))
		return err
	}

	if res.RowsAffected == 0 {
		logger.WithContext(ctx, r.log).Debug("delete matched no user", zap.Int64("id", id))
		return apperrors.NewNotFoundError("user", apperrors.MsgNotFound)
	}

	logger.WithContext(ctx, r.log).Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// logFailure logs classified errors at a level matching their severity.
func (r *UserRepo) logFailure(ctx context.Context, msg string, err error, fields ...zap.Field) {
	log := logger.WithContext(ctx, r.log)
	fields = append(fields, zap.Error(err))

	var internal *apperrors.InternalError
	if errors.As(err, &internal) {
		log.Error(msg, fields...)
		return
	}
	log.Warn(msg, fields...)
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
