package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CorvidLabs/algochat/internal/protocol/dispatch"
	"github.com/CorvidLabs/algochat/internal/protocol/ratchet"

	"github.com/redis/go-redis/v9"
)

type (
	// sessionBlob is what actually hits redis, vault-sealed: the initial
	// PSK plus the serialised counter state.
	sessionBlob struct {
		PSK   []byte          `json:"psk"`
		State json.RawMessage `json:"state"`
	}
)

func (c *App) sessionKey() string {
	return fmt.Sprintf("session:%s:%s", c.address, c.peer)
}

// saveSession persists the session. Callers on the send path must do this
// before handing the envelope to the transport: a crash after publish but
// before persistence would replay a counter.
func (c *App) saveSession(ctx context.Context) error {
	if c.session == nil {
		return nil
	}

	state, err := c.session.State.Serialize()
	if err != nil {
		return err
	}
	blob, err := json.Marshal(sessionBlob{PSK: c.session.InitialPSK, State: state})
	if err != nil {
		return err
	}
	sealed, err := c.vault.Seal(blob)
	if err != nil {
		return err
	}
	return c.redisService.Set(ctx, c.sessionKey(), sealed, 0)
}

// getSession restores the peer session, or returns nil when no PSK has been
// adopted. Corrupt state is surfaced, never silently replaced.
func (c *App) getSession(ctx context.Context) (*dispatch.Session, error) {
	v, err := c.redisService.Get(ctx, c.sessionKey())
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	blob, err := c.vault.Open([]byte(v))
	if err != nil {
		return nil, err
	}

	var sb sessionBlob
	if err := json.Unmarshal(blob, &sb); err != nil {
		return nil, ratchet.ErrStateCorrupt
	}
	state, err := ratchet.ParseCounterState(sb.State)
	if err != nil {
		return nil, err
	}

	return &dispatch.Session{InitialPSK: sb.PSK, State: state}, nil
}

// adoptPSK installs a fresh session for the peer from a 32-byte PSK.
func (c *App) adoptPSK(ctx context.Context, psk []byte) error {
	c.session = &dispatch.Session{
		InitialPSK: psk,
		State:      ratchet.NewCounterState(),
	}
	return c.saveSession(ctx)
}
