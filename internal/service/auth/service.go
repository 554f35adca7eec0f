// Package auth отвечает за регистрацию, вход и bearer-токены.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// RegisterRequest — данные регистрации.
type RegisterRequest struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Document        string
}

func (r RegisterRequest) validate() error {
	var errs []error
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, domain.ErrNameRequired)
	}
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, domain.ErrEmailRequired)
	}
	if r.Password == "" {
		errs = append(errs, domain.ErrPasswordRequired)
	} else if r.Password != r.ConfirmPassword {
		errs = append(errs, domain.ErrPasswordMismatch)
	}
	if strings.TrimSpace(r.Document) == "" {
		errs = append(errs, domain.ErrDocumentRequired)
	}
	return domain.NewValidationError(errs)
}

// Session — результат успешного входа.
type Session struct {
	User  domain.User
	Token string
}

// Service — учётные записи пользователей.
type Service struct {
	users      domain.UserRepository
	tokens     *TokenManager
	bcryptCost int
	logger     *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithBcryptCost меняет стоимость хэширования (в тестах — bcrypt.MinCost).
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService создаёт сервис учётных записей.
func NewService(users domain.UserRepository, tokens *TokenManager, opts ...Option) *Service {
	s := &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		logger:     log.New().WithField("component", "auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создаёт пользователя. Email приводится к нижнему регистру и
// должен быть уникален.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	if err := req.validate(); err != nil {
		return domain.User{}, err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.User{}, fmt.Errorf("register %s: %w", email, domain.ErrEmailTaken)
	} else if !domain.IsNotFound(err) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hash),
		Document: strings.TrimSpace(req.Document),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login проверяет пароль и выпускает токен.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("compare password: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	s.logger.WithField("user_id", user.ID).Debug("user logged in")
	return Session{User: user, Token: token}, nil
}

// Authenticate возвращает id пользователя по действующему токену.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, claims.UserID); err != nil {
		if domain.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %d no longer exists", domain.ErrUnauthorized, claims.UserID)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return claims, nil
}

// Logout отзывает токен.
func (s *Service) Logout(claims *Claims) {
	s.tokens.Revoke(claims)
	if claims != nil {
		s.logger.WithField("user_id", claims.UserID).Debug("user logged out")
	}
}

// Profile возвращает данные пользователя.
func (s *Service) Profile(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.User{}, fmt.Errorf("%w: %d", domain.ErrUserNotFound, userID)
		}
		return domain.User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
