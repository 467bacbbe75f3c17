// Package service holds the panel's business logic: user accounts and
// sessions, admin actions, blast management, and the companion bot link.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/config"
	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/repository"
	"github.com/blastline/panel-server-go/internal/util"
)

// PanelService handles registration, login and session validation for
// the web panel. Session tokens are random, returned to the browser in
// a cookie, and stored server-side as an HMAC so a database leak does
// not hand out live sessions.
type PanelService struct {
	users         repository.UserRepository
	sessions      repository.PanelSessionRepository
	email         EmailService
	sessionSecret string
}

func NewPanelService(users repository.UserRepository, sessions repository.PanelSessionRepository, email EmailService, sessionSecret string) *PanelService {
	return &PanelService{
		users:         users,
		sessions:      sessions,
		email:         email,
		sessionSecret: sessionSecret,
	}
}

func (s *PanelService) tokenHash(token string) string {
	return util.HmacSHA256(s.sessionSecret, token)
}

// Register creates a user account and fires off a welcome email. The
// first registered user is not special; admins are promoted explicitly.
func (s *PanelService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !util.IsValidEmail(email) {
		return nil, apperrors.InvalidInput("email", "must be a valid email address")
	}
	if len(password) < 8 {
		return nil, apperrors.InvalidInput("password", "must be at least 8 characters")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal("Failed to process password")
	}

	user, err := s.users.Create(ctx, model.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("user")
		}
		return nil, apperrors.Database(err)
	}

	// Best effort; registration does not fail on mail trouble.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.email.SendWelcome(ctx, user.Email); err != nil {
			log.Warn().Err(err).Str("userId", user.ID).Msg("failed to send welcome email")
		}
	}()

	log.Info().Str("userId", user.ID).Msg("user registered")
	return user, nil
}

// Login verifies credentials and mints a session token. The raw token
// goes back to the caller exactly once; only its HMAC is stored.
func (s *PanelService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}
	if user == nil || !util.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", apperrors.Unauthorized("Invalid email or password")
	}
	if user.Suspended() {
		return nil, "", apperrors.AccountSuspended()
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, "", apperrors.Internal("Failed to generate session token")
	}

	_, err = s.sessions.Create(ctx, model.CreatePanelSessionParams{
		TokenHash: s.tokenHash(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(config.SessionTTL),
	})
	if err != nil {
		return nil, "", apperrors.Database(err)
	}

	return user, token, nil
}

// ValidateSession resolves a raw session token to its user. Expired
// sessions and suspended users both come back as Unauthorized so the
// browser falls through to the login page.
func (s *PanelService) ValidateSession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("No session")
	}

	session, err := s.sessions.FindByTokenHash(ctx, s.tokenHash(token))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.Unauthorized("Session expired")
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.Unauthorized("Session expired")
	}
	if user.Suspended() {
		return nil, apperrors.AccountSuspended()
	}

	return user, nil
}

// Logout deletes the session matching the token. Unknown tokens are a
// no-op, logout is idempotent.
func (s *PanelService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.FindByTokenHash(ctx, s.tokenHash(token))
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil {
		return nil
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
