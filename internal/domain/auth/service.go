package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthUser is the credential row looked up at login.
type AuthUser struct {
	ID           string
	Role         string
	DepartmentID string
	PasswordHash string
}

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error)
	FindActiveUserByID(ctx context.Context, userID string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) error
	SessionValid(ctx context.Context, userID, refreshTokenHash string) (bool, error)
	RotateSession(ctx context.Context, userID, oldHash, newHash string, expires time.Time) error
	RevokeSession(ctx context.Context, userID, refreshTokenHash string) error
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service struct {
	store      StoreAPI
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(store StoreAPI, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{store: store, secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Login verifies the credentials and opens a session. Unknown emails
// and wrong passwords return the same error so the response does not
// leak which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*Tokens, *AuthUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, nil, err
	}
	return tokens, &user, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored session in place.
func (s *Service) Refresh(ctx context.Context, userID, refreshToken string) (*Tokens, error) {
	oldHash := hashToken(refreshToken)
	valid, err := s.store.SessionValid(ctx, userID, oldHash)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrSessionInvalid
	}

	user, err := s.store.FindActiveUserByID(ctx, userID)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	access, err := GenerateToken(s.secret, Claims{
		UserID:       user.ID,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
	}, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	if err := s.store.RotateSession(ctx, userID, oldHash, hashToken(refresh), time.Now().Add(s.refreshTTL)); err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	return s.store.RevokeSession(ctx, userID, hashToken(refreshToken))
}

func (s *Service) ParseAccessToken(tokenString string) (*Claims, error) {
	return ParseToken(s.secret, tokenString)
}

func (s *Service) issue(ctx context.Context, user AuthUser) (*Tokens, error) {
	access, err := GenerateToken(s.secret, Claims{
		UserID:       user.ID,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
	}, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	if err := s.store.CreateSession(ctx, user.ID, hashToken(refresh), time.Now().Add(s.refreshTTL)); err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// hashToken stores only a digest of the refresh token; a leaked
// sessions table cannot be replayed.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
