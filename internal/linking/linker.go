package linking

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	apperrors "github.com/blastline/panel-server-go/internal/errors"
	"github.com/blastline/panel-server-go/internal/model"
	"github.com/blastline/panel-server-go/internal/repository"
	"github.com/blastline/panel-server-go/internal/telegram"
	"github.com/blastline/panel-server-go/internal/util"
)

// Status tags the outcome of a linking step.
type Status string

const (
	StatusSuccess              Status = "success"
	StatusSecondFactorRequired Status = "second_factor_required"
	StatusError                Status = "error"
)

// Result is the outcome of a linking operation. Every path returns a
// Result; provider failures surface here as tagged errors, not panics.
type Result struct {
	Status  Status
	Message string
	Code    apperrors.ErrorCode
}

func success(message string) Result {
	return Result{Status: StatusSuccess, Message: message}
}

func failure(err *apperrors.AppError) Result {
	return Result{Status: StatusError, Message: err.Message, Code: err.Code}
}

// Linker drives the two-step linking flow: request a login code for a
// phone number, then verify the code (and 2FA password when the account
// has one) and persist the resulting session credential.
type Linker struct {
	dialer   telegram.Dialer
	store    *AttemptStore
	accounts repository.TelegramAccountRepository
	box      *util.SecretBox
}

// NewLinker constructs a Linker. dialer may be nil when the provider
// credentials are not configured; every operation then fails fast with
// PROVIDER_NOT_CONFIGURED instead of panicking at dial time.
func NewLinker(dialer telegram.Dialer, store *AttemptStore, accounts repository.TelegramAccountRepository, box *util.SecretBox) *Linker {
	return &Linker{
		dialer:   dialer,
		store:    store,
		accounts: accounts,
		box:      box,
	}
}

// RequestCode opens a provider connection for the user, asks Telegram to
// send a login code to phone, and parks the connection in the attempt
// store for the verify step. A repeated request replaces (and releases)
// any earlier attempt by the same user.
func (l *Linker) RequestCode(ctx context.Context, user *model.User, phone string) Result {
	if l.dialer == nil {
		return failure(apperrors.ProviderNotConfigured())
	}
	if user.Suspended() {
		return failure(apperrors.AccountSuspended())
	}

	phone = util.NormalizePhone(phone)
	if !util.IsValidPhone(phone) {
		return failure(apperrors.InvalidInput("phone", "must be in international format, e.g. +15551234567"))
	}

	conn, err := l.dialer.Dial(ctx)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("provider dial failed")
		return failure(apperrors.ProviderRejected(telegram.RejectionMessage(err)))
	}

	authorized, err := conn.Authorized(ctx)
	if err != nil {
		closeConn(user.ID, &Attempt{Conn: conn})
		log.Error().Err(err).Str("userId", user.ID).Msg("authorization check failed")
		return failure(apperrors.ProviderRejected(telegram.RejectionMessage(err)))
	}
	if authorized {
		closeConn(user.ID, &Attempt{Conn: conn})
		return failure(apperrors.AlreadyLinked())
	}

	codeHash, err := conn.SendCode(ctx, phone)
	if err != nil {
		closeConn(user.ID, &Attempt{Conn: conn})
		log.Warn().Err(err).Str("userId", user.ID).Str("phone", util.MaskPhone(phone)).Msg("send code rejected")
		return failure(apperrors.ProviderRejected(telegram.RejectionMessage(err)))
	}

	l.store.Put(user.ID, &Attempt{Conn: conn, Phone: phone, CodeHash: codeHash})

	log.Info().Str("userId", user.ID).Str("phone", util.MaskPhone(phone)).Msg("login code requested")
	return success("Verification code sent to " + util.MaskPhone(phone))
}

// VerifyCode completes the flow with the code the user received. When
// the account has two-factor auth enabled and no password was supplied,
// the attempt is kept alive and the caller is told to ask for one. On
// success the session credential is encrypted and persisted, and the
// provider connection is released.
func (l *Linker) VerifyCode(ctx context.Context, user *model.User, code, password string) Result {
	if user.Suspended() {
		return failure(apperrors.AccountSuspended())
	}

	attempt := l.store.Get(user.ID)
	if attempt == nil {
		return failure(apperrors.LinkSessionExpired())
	}

	err := attempt.Conn.SignIn(ctx, attempt.Phone, code, attempt.CodeHash)
	if errors.Is(err, telegram.ErrSecondFactorRequired) {
		if password == "" {
			return Result{
				Status:  StatusSecondFactorRequired,
				Message: "Two-factor authentication is enabled; enter your password",
			}
		}
		err = attempt.Conn.SignInWithPassword(ctx, password)
	}
	if err != nil {
		// Attempt stays alive so the user can retry with a corrected
		// code or password.
		log.Warn().Err(err).Str("userId", user.ID).Msg("sign-in rejected")
		return failure(apperrors.ProviderRejected(telegram.RejectionMessage(err)))
	}

	blob, err := attempt.Conn.SessionBlob(ctx)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to export session credential")
		return failure(apperrors.Internal("Could not complete linking"))
	}

	sealed, err := l.box.Seal(blob)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to encrypt session credential")
		return failure(apperrors.Internal("Could not complete linking"))
	}

	if _, err := l.accounts.Upsert(ctx, model.UpsertTelegramAccountParams{
		UserID:      user.ID,
		Phone:       attempt.Phone,
		SessionBlob: sealed,
	}); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("failed to persist linked account")
		return failure(apperrors.Database(err))
	}

	l.store.Remove(user.ID)
	closeConn(user.ID, attempt)

	log.Info().Str("userId", user.ID).Str("phone", util.MaskPhone(attempt.Phone)).Msg("telegram account linked")
	return success("Telegram account linked")
}

// Cancel abandons any in-progress attempt for the user.
func (l *Linker) Cancel(userID string) {
	l.store.Abandon(userID)
}
