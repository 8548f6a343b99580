package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dsbaciga/captains-log/internal/events"
	"github.com/dsbaciga/captains-log/internal/hash"
	"github.com/dsbaciga/captains-log/internal/logging"
	"github.com/dsbaciga/captains-log/internal/models"
	"github.com/dsbaciga/captains-log/internal/repo"
	"github.com/dsbaciga/captains-log/internal/tokens"
)

type AuthService struct {
	Repo     *repo.GormRepo
	Codec    *tokens.Codec
	Producer *events.Producer
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// PublicUser is the projection of a user that may cross the trust
// boundary. The password hash and internal fields never appear here.
type PublicUser struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

// CurrentUser extends PublicUser with the account creation time for the
// current-user endpoint.
type CurrentUser struct {
	PublicUser
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResult struct {
	User         PublicUser `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

func (s *AuthService) issueTokens(u *models.User) (string, string, error) {
	payload := tokens.Payload{
		ID:              u.ID,
		UserID:          u.ID,
		Email:           u.Email,
		PasswordVersion: u.PasswordVersion,
	}
	access, err := s.Codec.IssueAccess(payload)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Codec.IssueRefresh(payload)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}
	return access, refresh, nil
}

// bootstrapCompanion creates the user's self companion. Best-effort: a
// failure is logged and never fails the surrounding credential
// operation.
func (s *AuthService) bootstrapCompanion(ctx context.Context, userID uint, displayName string) {
	l := logging.FromContext(ctx)
	if _, err := s.Repo.EnsureSelfCompanion(ctx, userID, displayName); err != nil {
		l.Error("companion_bootstrap_failed", "user_id", userID, "error", err)
	}
}

func (s *AuthService) publishEvent(ctx context.Context, eventType string, u *models.User) {
	l := logging.FromContext(ctx)
	event := map[string]any{
		"userId":   u.ID,
		"username": u.Username,
		"at":       time.Now().UTC(),
	}
	if err := s.Producer.Publish(ctx, eventType, fmt.Sprint(u.ID), event); err != nil {
		l.Warn("event_publish_failed", "event_type", eventType, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	existing, err := s.Repo.FindByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		l.Error("register_failed", "reason", "store lookup", "error", err)
		return nil, fmt.Errorf("look up existing user: %w", err)
	}
	if existing != nil {
		// Email is checked first: when both collide, DuplicateEmail wins.
		if existing.Email == in.Email {
			return nil, ErrDuplicateEmail
		}
		return nil, ErrDuplicateUsername
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		l.Error("register_failed", "reason", "store create", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.bootstrapCompanion(ctx, user.ID, user.Username)

	access, refresh, err := s.issueTokens(&user)
	if err != nil {
		l.Error("register_failed", "error", err)
		return nil, err
	}

	s.publishEvent(ctx, events.TopicUserRegistered, &user)
	l.Info("register_successful", "user_id", user.ID)

	return &AuthResult{
		User:         publicUser(&user),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "reason", "store lookup", "error", err)
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, in.Password) {
		l.Warn("login_failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	// Accounts that predate companions get theirs here.
	s.bootstrapCompanion(ctx, user.ID, user.Username)

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	s.publishEvent(ctx, events.TopicUserLoggedIn, user)
	l.Info("login_successful", "user_id", user.ID)

	return &AuthResult{
		User:         publicUser(user),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh rotates a still-valid refresh token into a brand-new token
// pair built from the current user record. The presented token is only
// read, never recorded or invalidated, so concurrent calls with the
// same token each succeed independently.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	payload, err := s.Codec.VerifyRefresh(rawToken)
	if err != nil {
		l.Warn("refresh_failed", "reason", "token verification")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.FindByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "reason", "user gone", "user_id", payload.UserID)
			return nil, ErrInvalidRefreshToken
		}
		l.Error("refresh_failed", "reason", "store lookup", "error", err)
		return nil, fmt.Errorf("look up user: %w", err)
	}

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	return &AuthResult{
		User:         publicUser(user),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, id uint) (*CurrentUser, error) {
	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return &CurrentUser{
		PublicUser: publicUser(user),
		CreatedAt:  user.CreatedAt,
	}, nil
}
