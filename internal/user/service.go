package user

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	CreateAdmin(ctx context.Context, name, email, password string) (*User, error)
	Deactivate(ctx context.Context, userID int) error
}

type service struct {
	repo   Repository
	tokens *auth.TokenIssuer
}

func NewService(repo Repository, tokens *auth.TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	userType := req.Type
	if userType == "" {
		userType = auth.RoleCustomer
	}

	u := &User{
		Name:  req.Name,
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Type:  userType,
	}
	if req.Phone != "" {
		u.Phone = &req.Phone
	}
	if req.CompanyName != "" {
		u.CompanyName = &req.CompanyName
	}

	created, err := s.create(ctx, u, req.Password)
	if err != nil {
		return nil, err
	}

	return s.issue(created)
}

func (s *service) CreateAdmin(ctx context.Context, name, email, password string) (*User, error) {
	return s.create(ctx, &User{
		Name:  name,
		Email: strings.ToLower(strings.TrimSpace(email)),
		Type:  auth.RoleAdmin,
	}, password)
}

func (s *service) create(ctx context.Context, u *User, password string) (*User, error) {
	exists, err := s.repo.EmailExists(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	u.PasswordHash, err = auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, u)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(u)
}

func (s *service) issue(u *User) (*LoginResponse, error) {
	pair, err := s.tokens.Pair(identity(u))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         *u,
	}, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	claims, err := s.tokens.Parse(refreshToken, auth.KindRefresh)
	if err != nil {
		return "", nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	// Re-issue from the stored row so a changed type is picked up.
	newAccessToken, err := s.tokens.Access(identity(u))
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}

func (s *service) Deactivate(ctx context.Context, userID int) error {
	return s.repo.SoftDelete(ctx, userID)
}

func identity(u *User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Type}
}
