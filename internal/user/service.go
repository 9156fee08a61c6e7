package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"travelxguide/internal/auth"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Repo is what the service needs from persistence.
type Repo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int) (*User, error)
}

type Service struct {
	repo   Repo
	tokens *auth.Manager
}

func NewService(repo Repo, tokens *auth.Manager) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, errors.New("name, email and password are required")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPwd),
	}

	return s.repo.CreateUser(ctx, u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	ss, err := s.tokens.Sign(u.ID, u.Name, auth.RoleUser)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Success:     true,
		AccessToken: ss,
		ID:          u.ID,
		Name:        u.Name,
	}, nil
}

func (s *Service) Profile(ctx context.Context, id int) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// DisplayName is the user-directory lookup consumed by the chat relay.
func (s *Service) DisplayName(ctx context.Context, id int) (string, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}
