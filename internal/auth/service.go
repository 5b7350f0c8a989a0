package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"rentory/pkg/config"
	apperrors "rentory/pkg/errors"
	"rentory/pkg/model"
	"rentory/pkg/sanitizer"
)

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type TokenPair struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type Service interface {
	Register(ctx context.Context, reg *Registration) (*TokenPair, error)
	Login(ctx context.Context, creds *Credentials) (*TokenPair, error)
	VerifyToken(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	repo     UserRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewService(repo UserRepository, cfg *config.Config) Service {
	return &authService{
		repo:     repo,
		validate: validator.New(),
		cfg:      cfg,
	}
}

func (s *authService) Register(ctx context.Context, reg *Registration) (*TokenPair, error) {
	reg.Username = sanitizer.NormalizeName(reg.Username)
	reg.Email = sanitizer.NormalizeEmail(reg.Email)

	if err := s.validate.Struct(reg); err != nil {
		return nil, apperrors.Validation("Invalid registration input", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.FindByEmailOrUsername(ctx, reg.Email, reg.Username); err == nil {
		return nil, apperrors.Conflict("A user with this email or username already exists")
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, apperrors.Internal("Failed to check existing users", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperrors.Internal("Failed to create user", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("User registered", "id", user.ID.Hex(), "username", user.Username)
	return &TokenPair{Token: token, User: user}, nil
}

func (s *authService) Login(ctx context.Context, creds *Credentials) (*TokenPair, error) {
	creds.Email = sanitizer.NormalizeEmail(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return nil, apperrors.InvalidInput("Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Token: token, User: user}, nil
}

// VerifyToken parses a bearer token and loads its user. The user lookup
// rejects tokens for accounts deleted after issuance.
func (s *authService) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.Unauthorized("Invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.Unauthorized("Invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, apperrors.Unauthorized("Invalid token claims")
	}

	user, err := s.repo.FindByID(ctx, sub)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidUserID) {
			return nil, apperrors.Unauthorized("Invalid token")
		}
		return nil, apperrors.Internal("Failed to load token user", err)
	}
	return user, nil
}

func (s *authService) issueToken(user *model.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": user.ID.Hex(),
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.JWTTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", apperrors.Internal("Failed to sign token", err)
	}
	return signed, nil
}
