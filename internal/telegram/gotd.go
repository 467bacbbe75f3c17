package telegram

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gotd/contrib/bg"
	"github.com/gotd/td/session"
	tdclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// GotdDialer opens MTProto connections via gotd/td. Each Dial starts a
// fresh anonymous session backed by in-memory session storage, so the
// durable credential can be exported once sign-in completes.
type GotdDialer struct {
	apiID   int
	apiHash string
}

func NewGotdDialer(apiID int, apiHash string) *GotdDialer {
	return &GotdDialer{apiID: apiID, apiHash: apiHash}
}

func (d *GotdDialer) Dial(ctx context.Context) (Conn, error) {
	storage := &session.StorageMemory{}
	client := tdclient.NewClient(d.apiID, d.apiHash, tdclient.Options{
		SessionStorage: storage,
	})

	// The client has to keep running between HTTP requests: the code
	// request and its verification arrive on separate connections to us
	// but must share one connection to the provider.
	stop, err := bg.Connect(client)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	return &gotdConn{client: client, storage: storage, stop: stop}, nil
}

type gotdConn struct {
	client  *tdclient.Client
	storage *session.StorageMemory
	stop    bg.StopFunc
}

func (c *gotdConn) Authorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Authorized, nil
}

func (c *gotdConn) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", err
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code response: %T", sent)
	}

	return code.PhoneCodeHash, nil
}

func (c *gotdConn) SignIn(ctx context.Context, phone, code, codeHash string) error {
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return ErrSecondFactorRequired
	}
	return err
}

func (c *gotdConn) SignInWithPassword(ctx context.Context, password string) error {
	_, err := c.client.Auth().Password(ctx, password)
	return err
}

func (c *gotdConn) SessionBlob(ctx context.Context) (string, error) {
	data, err := c.storage.LoadSession(ctx)
	if err != nil {
		return "", fmt.Errorf("export session: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (c *gotdConn) Close() error {
	return c.stop()
}

// RejectionMessage extracts a short, safe-to-show message from a
// provider error. RPC errors surface their type (PHONE_CODE_INVALID,
// FLOOD_WAIT, ...); anything else gets a generic message so internal
// detail never reaches the client.
func RejectionMessage(err error) string {
	if rpcErr, ok := tgerr.As(err); ok {
		return rpcErr.Type
	}
	return "Telegram rejected the request"
}
