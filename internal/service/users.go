package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"go.uber.org/zap"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Generate(userID int64, role string) (string, error)
}

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, logger: logger, now: time.Now}
}

type RegisterInput struct {
	Name     string         `json:"name" validate:"required,max=100"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6,max=72"`
	Phone    string         `json:"phone" validate:"max=20"`
	Address  models.Address `json:"address"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by register and login.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a customer account and signs it in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	u, err := s.CreateUser(ctx, in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// CreateUser stores a new account with role. Used by registration and seeding.
func (s *UserService) CreateUser(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if errs := fieldErrors("", in); len(errs) > 0 {
		return nil, newValidationError("invalid registration", errs...)
	}
	if role != models.RoleCustomer && role != models.RoleAdmin {
		return nil, newValidationError("invalid registration", "role must be one of: customer, admin")
	}

	var password models.Password
	if err := password.Set(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         role,
		PasswordHash: password.Hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newValidationError("invalid registration", "email is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", role))
	return u, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs := fieldErrors("", in); len(errs) > 0 {
		return nil, newValidationError("invalid login", errs...)
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	password := models.Password{Hash: u.PasswordHash}
	match, err := password.Matches(in.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Profile returns the user behind an authenticated request.
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

func (s *UserService) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}
