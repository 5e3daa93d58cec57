package services

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tillpoint/internal/domain"
	"tillpoint/internal/repos"
)

var (
	ErrBadCreds        = errors.New("invalid username or PIN")
	ErrUnknownBusiness = errors.New("unknown business code")
)

type AuthService struct {
	Users      *repos.UserRepo
	Businesses *repos.BusinessRepo
}

// Login checks username + PIN. The same username may exist in several
// businesses, so the PIN picks the matching account. Inactive users get the
// same answer as wrong credentials so the login form leaks nothing.
func (s *AuthService) Login(sid, username, pin string) (*domain.User, error) {
	candidates, err := s.Users.ByUsername(username)
	if err != nil {
		return nil, ErrBadCreds
	}
	for i := range candidates {
		u := &candidates[i]
		if !u.Active {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin)) != nil {
			continue
		}
		if err := s.Users.BindSession(sid, u.ID); err != nil {
			return nil, err
		}
		return u, nil
	}
	return nil, ErrBadCreds
}

// Register joins an existing business by code and creates a seller account.
func (s *AuthService) Register(sid, code, username, pin string) (*domain.User, error) {
	b, err := s.Businesses.ByCode(code)
	if err != nil {
		return nil, ErrUnknownBusiness
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), 12)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:         uuid.NewString(),
		BusinessID: b.ID,
		Username:   username,
		PinHash:    string(hash),
		Role:       domain.RoleSeller,
		Active:     true,
	}
	if err := s.Users.Create(u); err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser is the admin path: pick the role, stay logged in as admin.
func (s *AuthService) CreateUser(businessID, username, pin, role string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), 12)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		Username:   username,
		PinHash:    string(hash),
		Role:       role,
		Active:     true,
	}
	if err := s.Users.Create(u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}
