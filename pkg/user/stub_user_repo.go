package user

import (
	"context"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/money"
)

type StubUserRepository struct {
	nextId int
	data   map[int]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[int]User{}}
}

func (s *StubUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	user, ok := s.data[id]
	if !ok {
		return User{}, apperr.NotFound("User not found", ErrUserNotFound)
	}
	return user, nil
}

func (s *StubUserRepository) GetUserByUid(ctx context.Context, uid string) (User, error) {
	for _, user := range s.data {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, apperr.NotFound("User not found", ErrUserNotFound)
}

func (s *StubUserRepository) UpsertUser(ctx context.Context, uid string, email string) (User, error) {
	if existing, err := s.GetUserByUid(ctx, uid); err == nil {
		if email != "" {
			existing.Email = email
			s.data[existing.Id] = existing
		}
		return existing, nil
	}
	s.nextId++
	user := User{Id: s.nextId, Uid: uid, Email: email, Currency: money.DefaultCurrency}
	s.data[user.Id] = user
	return user, nil
}

func (s *StubUserRepository) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	existing, ok := s.data[userId]
	if !ok {
		return User{}, apperr.NotFound("User not found", ErrUserNotFound)
	}
	existing.DisplayName = user.DisplayName
	existing.Currency = user.Currency
	s.data[userId] = existing
	return existing, nil
}

func (s *StubUserRepository) SetOnboardingCompleted(ctx context.Context, userId int) (User, error) {
	existing, ok := s.data[userId]
	if !ok {
		return User{}, apperr.NotFound("User not found", ErrUserNotFound)
	}
	existing.OnboardingCompleted = true
	s.data[userId] = existing
	return existing, nil
}
