// Package bot runs the companion Telegram notification bot. Panel users
// link their chat with a single-use deep-link token, then query blast
// status and receive notifications in Telegram.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/blastline/panel-server-go/internal/repository"
	"github.com/blastline/panel-server-go/internal/service"
	"github.com/blastline/panel-server-go/internal/util"
)

const handlerTimeout = 10 * time.Second

type Bot struct {
	tb       *tele.Bot
	botlink  *service.BotLinkService
	blasts   repository.BlastRepository
	accounts repository.TelegramAccountRepository
}

func New(token string, botlink *service.BotLinkService, blasts repository.BlastRepository, accounts repository.TelegramAccountRepository) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b := &Bot{
		tb:       tb,
		botlink:  botlink,
		blasts:   blasts,
		accounts: accounts,
	}

	tb.Handle("/start", b.handleStart)
	tb.Handle("/status", b.handleStatus)
	tb.Handle("/blasts", b.handleBlasts)
	tb.Handle("/help", b.handleHelp)

	return b, nil
}

// Start runs the long poller until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.tb.Me.Username).Msg("notification bot started")
	go b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
	log.Info().Msg("notification bot stopped")
}

// NotifyUser pushes a message to a linked chat. Callers look the chat
// up on the user record; a nil chatID means nothing is linked.
func (b *Bot) NotifyUser(chatID int64, message string) error {
	_, err := b.tb.Send(&tele.Chat{ID: chatID}, message, tele.ModeHTML)
	return err
}

func (b *Bot) handleStart(c tele.Context) error {
	payload := c.Message().Payload
	if payload == "" {
		return c.Send("Welcome. Open the panel and generate a link code to connect this chat to your account, then tap the link it gives you.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	user, err := b.botlink.Redeem(ctx, payload, c.Chat().ID)
	if err != nil {
		log.Warn().Err(err).Int64("chatId", c.Chat().ID).Msg("bot link redemption failed")
		return c.Send("That link is invalid or has expired. Generate a fresh one from the panel.")
	}

	return c.Send(fmt.Sprintf("Connected to <b>%s</b>. You will receive blast notifications here. Try /status.", user.Email), tele.ModeHTML)
}

func (b *Bot) handleStatus(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	user, err := b.botlink.UserForChat(ctx, c.Chat().ID)
	if err != nil {
		return c.Send("Something went wrong, try again later.")
	}
	if user == nil {
		return c.Send("This chat is not connected to a panel account. Use the link from the panel's bot settings.")
	}

	account, err := b.accounts.FindByUserID(ctx, user.ID)
	if err != nil {
		return c.Send("Something went wrong, try again later.")
	}

	linkLine := "Telegram account: not linked"
	if account != nil {
		state := "inactive"
		if account.Active {
			state = "active"
		}
		linkLine = fmt.Sprintf("Telegram account: %s (%s)", util.MaskPhone(account.Phone), state)
	}

	count, err := b.blasts.CountByUserID(ctx, user.ID)
	if err != nil {
		return c.Send("Something went wrong, try again later.")
	}

	return c.Send(fmt.Sprintf("Account: %s\n%s\nBlasts: %d", user.Email, linkLine, count))
}

func (b *Bot) handleBlasts(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	user, err := b.botlink.UserForChat(ctx, c.Chat().ID)
	if err != nil {
		return c.Send("Something went wrong, try again later.")
	}
	if user == nil {
		return c.Send("This chat is not connected to a panel account.")
	}

	blasts, err := b.blasts.FindByUserID(ctx, user.ID, 10, 0)
	if err != nil {
		return c.Send("Something went wrong, try again later.")
	}
	if len(blasts) == 0 {
		return c.Send("No blasts yet. Create one in the panel.")
	}

	msg := "<b>Your latest blasts</b>\n"
	for _, blast := range blasts {
		msg += fmt.Sprintf("- %s [%s]\n", blast.Title, blast.Status)
	}
	return c.Send(msg, tele.ModeHTML)
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send("/status - account and link state\n/blasts - your latest blasts\n/start <code> - connect this chat to a panel account")
}
