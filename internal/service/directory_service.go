package service

import (
	"context"
	"strconv"
	"time"

	"learnera-be/internal/entity"
	"learnera-be/internal/repository/contract"
	"learnera-be/internal/repository/specification"

	"github.com/patrickmn/go-cache"
)

// IUserDirectory resolves user ids to profiles and owns the persisted
// presence flag. Profile reads go through a short-lived cache because the
// gateway resolves the sender on every routed message.
type IUserDirectory interface {
	// GetUser returns (nil, nil) when the user does not exist.
	GetUser(ctx context.Context, id uint) (*entity.User, error)
	SetOnline(ctx context.Context, id uint, online bool) error
}

type userDirectory struct {
	repo  contract.UserRepository
	cache *cache.Cache
}

func NewUserDirectory(repo contract.UserRepository) IUserDirectory {
	return &userDirectory{
		repo:  repo,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func cacheKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (d *userDirectory) GetUser(ctx context.Context, id uint) (*entity.User, error) {
	if x, found := d.cache.Get(cacheKey(id)); found {
		return x.(*entity.User), nil
	}

	user, err := d.repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Misses are not cached; a user may be created moments later.
		return nil, nil
	}

	d.cache.Set(cacheKey(id), user, cache.DefaultExpiration)
	return user, nil
}

func (d *userDirectory) SetOnline(ctx context.Context, id uint, online bool) error {
	if err := d.repo.SetOnline(ctx, id, online); err != nil {
		return err
	}

	if x, found := d.cache.Get(cacheKey(id)); found {
		user := *x.(*entity.User)
		user.IsOnline = online
		d.cache.Set(cacheKey(id), &user, cache.DefaultExpiration)
	}
	return nil
}
