package cached

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"users-api/internal/adapter/cache"
	domain "users-api/internal/domain/user"
	"users-api/internal/usecase/user"
	"users-api/pkg/logger"
)

// UserRepository decorates a persistent user.Repository with a read-through
// cache for GetByID. Writes always go to the database first; the cache entry is
// dropped afterwards. Cache failures are logged and never surface to callers.
//
// A read that started before a write never fills the cache and is never shared
// with reads issued after that write.
type UserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group

	mu  sync.Mutex // serializes cache fills against invalidations
	gen uint64     // bumped by every successful write
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

var _ user.Repository = (*UserRepository)(nil)

// Create delegates to the DB repository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	return r.dbRepo.Create(ctx, u)
}

// List delegates to the DB repository.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.List(ctx)
}

// GetByID retrieves a user by ID using the cache-aside pattern.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	log := logger.WithContext(ctx, r.log)

	cachedUser, err := r.cache.Get(ctx, id)
	if err != nil {
		log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
	} else if cachedUser != nil {
		return cachedUser, nil
	}

	// Concurrent misses for the same id share one database read. The read
	// outlives the caller that started it, since other callers may be waiting.
	result, err, _ := r.group.Do(flightKey(id), func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		gen := r.generation()

		u, err := r.dbRepo.GetByID(fctx, id)
		if err != nil {
			return nil, err
		}

		r.fill(fctx, gen, u)
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u := *result.(*domain.User)
	return &u, nil
}

// Update updates the user in DB and invalidates the cache.
func (r *UserRepository) Update(ctx context.Context, id int64, patch domain.Patch) error {
	if err := r.dbRepo.Update(ctx, id, patch); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.dbRepo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *UserRepository) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// fill caches u unless a write happened since gen was read.
func (r *UserRepository) fill(ctx context.Context, gen uint64, u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		logger.WithContext(ctx, r.log).Debug("skipping cache fill after concurrent write", zap.Int64("id", u.ID))
		return
	}
	if err := r.cache.Set(ctx, u); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to cache user", zap.Int64("id", u.ID), zap.Error(err))
	}
}

// invalidate drops the cached entry and detaches in-flight reads of id, so the
// next GetByID reads the row as written.
func (r *UserRepository) invalidate(ctx context.Context, id int64) {
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	r.group.Forget(flightKey(id))
	if err := r.cache.Delete(ctx, id); err != nil {
		logger.WithContext(ctx, r.log).Warn("failed to invalidate cached user", zap.Int64("id", id), zap.Error(err))
	}
}

func flightKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
