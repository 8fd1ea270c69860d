package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/money"
	log "github.com/sirupsen/logrus"
)

const maxDisplayNameLength = 100

type Service interface {
	GetUserByUid(ctx context.Context, uid string) (User, error)
	// EnsureUser returns the local profile of a verified identity, creating it on first sight.
	EnsureUser(ctx context.Context, uid string, email string) (User, error)
	GetCurrentUser(ctx context.Context) (User, error)
	UpdateCurrentUser(ctx context.Context, user User) (User, error)
	CompleteOnboarding(ctx context.Context) (User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) EnsureUser(ctx context.Context, uid string, email string) (User, error) {
	existing, err := u.repo.GetUserByUid(ctx, uid)
	if err == nil && (email == "" || existing.Email == email) {
		return existing, nil
	}
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return User{}, err
	}
	log.Debugf("provisioning user profile for %s", uid)
	return u.repo.UpsertUser(ctx, uid, email)
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.repo.GetUser(ctx, userId)
}

func (u *UserServiceImpl) UpdateCurrentUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}

	fields := map[string]string{}
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	if len(user.DisplayName) > maxDisplayNameLength {
		fields["displayName"] = fmt.Sprintf("must be at most %d characters", maxDisplayNameLength)
	}
	code, err := money.ParseCurrency(user.Currency)
	if err != nil {
		fields["currency"] = "must be a valid ISO 4217 code"
	}
	if len(fields) > 0 {
		return User{}, apperr.Validation("Invalid user data", fields)
	}
	user.Currency = code

	return u.repo.UpdateUser(ctx, userId, user)
}

func (u *UserServiceImpl) CompleteOnboarding(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.repo.SetOnboardingCompleted(ctx, userId)
}
