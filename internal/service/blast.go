package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/repository"
)

const (
	maxBlastTitleLen   = 200
	maxBlastMessageLen = 4096
	minBlastInterval   = 1
	maxBlastInterval   = 1440
)

// BlastService manages a user's broadcast campaign definitions. It only
// stores and validates them; dispatching messages is a separate worker's
// job.
type BlastService struct {
	blasts   repository.BlastRepository
	accounts repository.TelegramAccountRepository
}

func NewBlastService(blasts repository.BlastRepository, accounts repository.TelegramAccountRepository) *BlastService {
	return &BlastService{blasts: blasts, accounts: accounts}
}

func (s *BlastService) validate(title, message string, intervalMins int) *apperrors.AppError {
	if strings.TrimSpace(title) == "" {
		return apperrors.MissingRequired("title")
	}
	if len(title) > maxBlastTitleLen {
		return apperrors.InvalidInput("title", "too long")
	}
	if strings.TrimSpace(message) == "" {
		return apperrors.MissingRequired("message")
	}
	if len(message) > maxBlastMessageLen {
		return apperrors.InvalidInput("message", "exceeds the Telegram message limit")
	}
	if intervalMins < minBlastInterval || intervalMins > maxBlastInterval {
		return apperrors.InvalidInput("intervalMins", "must be between 1 and 1440")
	}
	return nil
}

func (s *BlastService) Create(ctx context.Context, user *model.User, params model.CreateBlastParams) (*model.Blast, error) {
	if appErr := s.validate(params.Title, params.Message, params.IntervalMins); appErr != nil {
		return nil, appErr
	}
	if params.Status == "" {
		params.Status = model.BlastStatusDraft
	}
	if !params.Status.Valid() {
		return nil, apperrors.InvalidInput("status", "unknown status")
	}

	// Scheduling requires a usable Telegram link; drafts don't.
	if params.Status == model.BlastStatusScheduled {
		account, err := s.accounts.FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if account == nil || !account.Active {
			return nil, apperrors.NotLinked()
		}
	}

	params.UserID = user.ID
	blast, err := s.blasts.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("userId", user.ID).Str("blastId", blast.ID).Str("status", string(blast.Status)).Msg("blast created")
	return blast, nil
}

func (s *BlastService) List(ctx context.Context, userID string, limit, offset int) ([]model.Blast, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	blasts, err := s.blasts.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return blasts, nil
}

// Get enforces ownership: users only ever see their own blasts.
func (s *BlastService) Get(ctx context.Context, userID, blastID string) (*model.Blast, error) {
	blast, err := s.blasts.FindByID(ctx, blastID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if blast == nil || blast.UserID != userID {
		return nil, apperrors.NotFound("blast")
	}
	return blast, nil
}

func (s *BlastService) Update(ctx context.Context, user *model.User, blastID string, params model.UpdateBlastParams) (*model.Blast, error) {
	existing, err := s.Get(ctx, user.ID, blastID)
	if err != nil {
		return nil, err
	}

	title := existing.Title
	if params.Title != nil {
		title = *params.Title
	}
	message := existing.Message
	if params.Message != nil {
		message = *params.Message
	}
	interval := existing.IntervalMins
	if params.IntervalMins != nil {
		interval = *params.IntervalMins
	}
	if appErr := s.validate(title, message, interval); appErr != nil {
		return nil, appErr
	}

	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, apperrors.InvalidInput("status", "unknown status")
		}
		if *params.Status == model.BlastStatusScheduled {
			account, err := s.accounts.FindByUserID(ctx, user.ID)
			if err != nil {
				return nil, apperrors.Database(err)
			}
			if account == nil || !account.Active {
				return nil, apperrors.NotLinked()
			}
		}
	}

	blast, err := s.blasts.Update(ctx, blastID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return blast, nil
}

func (s *BlastService) Delete(ctx context.Context, userID, blastID string) error {
	if _, err := s.Get(ctx, userID, blastID); err != nil {
		return err
	}

	if err := s.blasts.Delete(ctx, blastID); err != nil {
		return apperrors.Database(err)
	}

	log.Info().Str("userId", userID).Str("blastId", blastID).Msg("blast deleted")
	return nil
}

// SetTargetGroups updates the group list the user's blasts go to.
func (s *BlastService) SetTargetGroups(ctx context.Context, userID string, groups []string) (*model.TelegramAccount, error) {
	for _, g := range groups {
		if strings.TrimSpace(g) == "" {
			return nil, apperrors.InvalidInput("targetGroups", "group names cannot be empty")
		}
	}

	account, err := s.accounts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotLinked()
	}

	updated, err := s.accounts.UpdateTargetGroups(ctx, userID, model.EncodeGroups(groups))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return updated, nil
}
