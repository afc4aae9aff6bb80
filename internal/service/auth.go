package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/metrics"
	"github.com/taskvault/taskvault/internal/model"
	"github.com/taskvault/taskvault/internal/repository"
)

// Service errors.
var (
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials covers both unknown-username and wrong-password
	// failures so the response never reveals which check failed.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserStore is the credential store interface used by AuthService.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthService orchestrates registration and login.
type AuthService struct {
	users   UserStore
	tokens  *auth.TokenService
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenService, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		logger:  logger,
		metrics: recorder,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// Register validates the input, hashes the password, and persists a new
// active user. No plaintext password is ever stored or logged.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       input.Username,
		Email:          input.Email,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		HashedPassword: hashed,
		Role:           input.Role,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

// LoginResult carries a freshly issued access token.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// Login verifies the credentials and issues a bearer token.
// Unknown username and wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	match, err := auth.VerifyPassword(password, user.HashedPassword)
	if err != nil {
		// Corrupt or incompatible stored hash. The caller still sees the
		// uniform failure, but the operator needs to know this is not a
		// wrong password.
		s.logger.Error("stored password hash failed verification",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}
	if !match {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLoginSuccess()
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

func validateRegisterInput(input RegisterInput) error {
	if len(input.Username) < minUsernameLength {
		return invalidField("username", "must be at least %d characters", minUsernameLength)
	}
	if len(input.Password) < minPasswordLength {
		return invalidField("password", "must be at least %d characters", minPasswordLength)
	}
	if !emailRegex.MatchString(input.Email) {
		return invalidField("email", "must be a valid email address")
	}
	if len(input.FirstName) < minNameLength {
		return invalidField("first_name", "must be at least %d characters", minNameLength)
	}
	if len(input.LastName) < minNameLength {
		return invalidField("last_name", "must be at least %d characters", minNameLength)
	}
	// Admin accounts are provisioned out of band; the public endpoint must
	// never mint one.
	if input.Role == model.RoleAdmin {
		return invalidField("role", "cannot be requested at registration")
	}
	return nil
}
