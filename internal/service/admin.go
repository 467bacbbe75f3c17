package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/linking"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/repository"
)

// AdminService implements the management surface: listing users,
// suspending and reinstating them, and promoting admins.
type AdminService struct {
	users    repository.UserRepository
	accounts repository.TelegramAccountRepository
	sessions repository.PanelSessionRepository
	blasts   repository.BlastRepository
	attempts *linking.AttemptStore
	email    EmailService
}

func NewAdminService(
	users repository.UserRepository,
	accounts repository.TelegramAccountRepository,
	sessions repository.PanelSessionRepository,
	blasts repository.BlastRepository,
	attempts *linking.AttemptStore,
	email EmailService,
) *AdminService {
	return &AdminService{
		users:    users,
		accounts: accounts,
		sessions: sessions,
		blasts:   blasts,
		attempts: attempts,
		email:    email,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return users, nil
}

// Suspend locks a user out. Their panel sessions are revoked, any
// in-progress link attempt is abandoned, and the linked Telegram
// account is deactivated so no blast uses it while suspended.
func (s *AdminService) Suspend(ctx context.Context, actorID, userID string) (*model.User, error) {
	if actorID == userID {
		return nil, apperrors.InvalidInput("userId", "cannot suspend yourself")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	if user.Suspended() {
		return user, nil
	}

	now := time.Now()
	user, err = s.users.SetSuspended(ctx, userID, &now)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if _, err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to revoke sessions of suspended user")
	}
	if err := s.accounts.SetActive(ctx, userID, false); err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to deactivate telegram link of suspended user")
	}
	s.attempts.Abandon(userID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.email.SendSuspensionNotice(ctx, user.Email); err != nil {
			log.Warn().Err(err).Str("userId", userID).Msg("failed to send suspension notice")
		}
	}()

	log.Info().Str("userId", userID).Str("actorId", actorID).Msg("user suspended")
	return user, nil
}

// Unsuspend reinstates a user. The Telegram link stays inactive until
// the user re-links; their stored credential may have gone stale while
// suspended.
func (s *AdminService) Unsuspend(ctx context.Context, actorID, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	if !user.Suspended() {
		return user, nil
	}

	user, err = s.users.SetSuspended(ctx, userID, nil)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("userId", userID).Str("actorId", actorID).Msg("user unsuspended")
	return user, nil
}

func (s *AdminService) SetAdmin(ctx context.Context, actorID, userID string, isAdmin bool) (*model.User, error) {
	if actorID == userID && !isAdmin {
		return nil, apperrors.InvalidInput("userId", "cannot demote yourself")
	}

	user, err := s.users.SetAdmin(ctx, userID, isAdmin)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	log.Info().Str("userId", userID).Str("actorId", actorID).Bool("isAdmin", isAdmin).Msg("admin role changed")
	return user, nil
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	SuspendedUsers int `json:"suspendedUsers"`
	LinkedAccounts int `json:"linkedAccounts"`
	TotalBlasts    int `json:"totalBlasts"`
	PendingLinks   int `json:"pendingLinks"`
}

func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	suspended, err := s.users.CountSuspended(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	linked, err := s.accounts.CountActive(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	blasts, err := s.blasts.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &Stats{
		TotalUsers:     total,
		SuspendedUsers: suspended,
		LinkedAccounts: linked,
		TotalBlasts:    blasts,
		PendingLinks:   s.attempts.Len(),
	}, nil
}
