package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/auth"
	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

const minPasswordLength = 6

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthUseCase registers users and issues and verifies their tokens
type AuthUseCase struct {
	store    repository.Store
	tokens   *auth.TokenManager
	sessions auth.SessionStore
}

func NewAuthUseCase(store repository.Store, tokens *auth.TokenManager, sessions auth.SessionStore) *AuthUseCase {
	if sessions == nil {
		sessions = auth.NoopSessionStore{}
	}
	return &AuthUseCase{
		store:    store,
		tokens:   tokens,
		sessions: sessions,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		return nil, apperror.Validation("email", "Email is required")
	case req.Password == "":
		return nil, apperror.Validation("password", "Password is required")
	case !validEmail(email):
		return nil, apperror.Validation("email", "Email format is invalid")
	case len(req.Password) < minPasswordLength:
		return nil, apperror.Validation("password", "Password must be at least 6 characters")
	}

	_, err := uc.store.Users().GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("Email already registered")
	}
	if !isNotFound(err) {
		return nil, internalError("failed to look up user", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	user := entity.NewUser(email, username, hash)
	if err := uc.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, internalError("failed to create user", err)
	}

	logger.GetLogger(ctx).WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func (uc *AuthUseCase) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, apperror.Validation("email", "Email is required")
	}
	if req.Password == "" {
		return nil, apperror.Validation("password", "Password is required")
	}

	user, err := uc.store.Users().GetByEmail(ctx, email)
	if isNotFound(err) {
		return nil, apperror.Authentication("Invalid email or password")
	}
	if err != nil {
		return nil, internalError("failed to look up user", err)
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperror.Authentication("Invalid email or password")
	}

	token, claims, err := uc.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}
	if err := uc.sessions.Save(ctx, claims.TokenID(), user.ID, uc.tokens.TTL()); err != nil {
		return nil, apperror.Internal("failed to save session", err)
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Authenticate resolves a bearer token to its still existing user.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.User, *auth.Claims, error) {
	claims, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}

	active, err := uc.sessions.Active(ctx, claims.TokenID())
	if err != nil {
		return nil, nil, apperror.Internal("failed to check session", err)
	}
	if !active {
		return nil, nil, apperror.Authentication("Token has been revoked")
	}

	user, err := uc.store.Users().GetByID(ctx, claims.UserID)
	if isNotFound(err) {
		return nil, nil, apperror.NotFound("User", claims.UserID)
	}
	if err != nil {
		return nil, nil, internalError("failed to look up user", err)
	}
	return user, claims, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, apperror.Authentication("User ID not found in token")
	}
	user, err := uc.store.Users().GetByID(ctx, userID)
	if isNotFound(err) {
		return nil, apperror.NotFound("User", userID)
	}
	if err != nil {
		return nil, internalError("failed to look up user", err)
	}
	return user, nil
}

// Logout revokes the session of the token with the given id.
func (uc *AuthUseCase) Logout(ctx context.Context, tokenID string) error {
	if err := uc.sessions.Revoke(ctx, tokenID); err != nil {
		return apperror.Internal("failed to revoke session", err)
	}
	return nil
}
