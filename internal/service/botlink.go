package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/repository"
	"github.com/blastline/panel-server-go/internal/util"
)

// BotLinkService connects a panel account to a chat with the companion
// notification bot. The panel mints a single-use deep-link token; the
// bot redeems it when the user taps /start with that payload.
type BotLinkService struct {
	tokens      repository.BotLinkTokenRepository
	users       repository.UserRepository
	botUsername string
	tokenTTL    time.Duration
}

func NewBotLinkService(tokens repository.BotLinkTokenRepository, users repository.UserRepository, botUsername string, tokenTTL time.Duration) *BotLinkService {
	return &BotLinkService{
		tokens:      tokens,
		users:       users,
		botUsername: botUsername,
		tokenTTL:    tokenTTL,
	}
}

// GenerateLink mints a fresh deep link for the user. Earlier unused
// tokens for the same user are revoked so only the latest link works.
func (s *BotLinkService) GenerateLink(ctx context.Context, userID string) (string, error) {
	if s.botUsername == "" {
		return "", apperrors.ProviderNotConfigured()
	}

	token, err := util.GenerateToken()
	if err != nil {
		return "", apperrors.Internal("Failed to generate link token")
	}

	if _, err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		return "", apperrors.Database(err)
	}

	_, err = s.tokens.Create(ctx, model.CreateBotLinkTokenParams{
		TokenHash: util.HashToken(token),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, token), nil
}

// Redeem consumes a deep-link token presented to the bot and binds the
// chat to the token's user. Each token works exactly once.
func (s *BotLinkService) Redeem(ctx context.Context, token string, chatID int64) (*model.User, error) {
	if token == "" {
		return nil, apperrors.InvalidBotLink()
	}

	record, err := s.tokens.FindActiveByTokenHash(ctx, util.HashToken(token))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if record == nil {
		return nil, apperrors.InvalidBotLink()
	}

	if err := s.tokens.MarkUsed(ctx, record.ID, chatID); err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.users.BindBotChat(ctx, record.UserID, chatID); err != nil {
		return nil, apperrors.Database(err)
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	log.Info().Str("userId", user.ID).Int64("chatId", chatID).Msg("bot chat linked")
	return user, nil
}

// UserForChat resolves a bot chat to the panel user bound to it.
func (s *BotLinkService) UserForChat(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := s.users.FindByBotChatID(ctx, chatID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return user, nil
}
