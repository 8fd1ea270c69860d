package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	// UpsertUser inserts the user identified by uid, or refreshes its email when it already exists.
	UpsertUser(ctx context.Context, uid string, email string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	SetOnboardingCompleted(ctx context.Context, userId int) (User, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, email, display_name, currency, onboarding_completed`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.Id, &user.Uid, &user.Email, &user.DisplayName, &user.Currency, &user.OnboardingCompleted)
	return user, err
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(u.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with id %d not found", id)
		return User{}, apperr.NotFound("User not found", ErrUserNotFound)
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, apperr.FromDatabase(err)
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	user, err := scanUser(u.db.QueryRow(ctx, query, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with uid %s not found", uid)
		return User{}, apperr.NotFound("User not found", ErrUserNotFound)
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, apperr.FromDatabase(err)
	}
	return user, nil
}

func (u *UserRepoImpl) UpsertUser(ctx context.Context, uid string, email string) (User, error) {
	query := `INSERT INTO users (uid, email) VALUES ($1, $2)
				ON CONFLICT (uid) DO UPDATE SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email)
				RETURNING ` + userColumns
	user, err := scanUser(u.db.QueryRow(ctx, query, uid, email))
	if err != nil {
		log.Errorf("failed to upsert user %s: %v", uid, err)
		return User{}, apperr.FromDatabase(err)
	}
	return user, nil
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, currency = $2 WHERE id = $3 RETURNING ` + userColumns
	updated, err := scanUser(u.db.QueryRow(ctx, query, user.DisplayName, user.Currency, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Info("no rows affected of updating user")
		return User{}, apperr.NotFound(fmt.Sprintf("User with id %d not found", userId), ErrUserNotFound)
	} else if err != nil {
		log.Errorf("failed to update user: %v", err)
		return User{}, apperr.FromDatabase(err)
	}
	return updated, nil
}

func (u *UserRepoImpl) SetOnboardingCompleted(ctx context.Context, userId int) (User, error) {
	query := `UPDATE users SET onboarding_completed = TRUE WHERE id = $1 RETURNING ` + userColumns
	updated, err := scanUser(u.db.QueryRow(ctx, query, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NotFound(fmt.Sprintf("User with id %d not found", userId), ErrUserNotFound)
	} else if err != nil {
		log.Errorf("failed to complete onboarding: %v", err)
		return User{}, apperr.FromDatabase(err)
	}
	return updated, nil
}
