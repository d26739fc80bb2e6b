package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/CorvidLabs/algochat/internal/model"
	"github.com/CorvidLabs/algochat/internal/protocol/exchange"
)

// handleCommand runs the slash commands typed into the input field.
//
//	/invite [label]   generate a PSK, adopt it, print the exchange URI
//	/psk <uri>        adopt a pasted exchange URI
//	/label <text>     label the peer
//	/block | /unblock toggle the peer's block flag
func (c *App) handleCommand(ctx context.Context, line string) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/invite":
		psk := make([]byte, exchange.PSKSize)
		if _, err := io.ReadFull(rand.Reader, psk); err != nil {
			c.printSystem(fmt.Sprintf("invite failed: %v", err))
			return
		}
		uri, err := exchange.Encode(c.address, psk, rest)
		if err != nil {
			c.printSystem(fmt.Sprintf("invite failed: %v", err))
			return
		}
		if err := c.adoptPSK(ctx, psk); err != nil {
			c.printSystem(fmt.Sprintf("invite failed: %v", err))
			return
		}
		c.printSystem("PSK session started. Share out-of-band:")
		c.printSystem(uri)

	case "/psk":
		ex, err := exchange.Decode(rest)
		if err != nil {
			c.printSystem(fmt.Sprintf("bad exchange uri: %v", err))
			return
		}
		if ex.Addr != c.peer {
			c.printSystem(fmt.Sprintf("uri is for %s, current peer is %s", ex.Addr, c.peer))
			return
		}
		if err := c.adoptPSK(ctx, ex.PSK[:]); err != nil {
			c.printSystem(fmt.Sprintf("adopt psk failed: %v", err))
			return
		}
		if ex.Label != "" {
			c.updateContact(ctx, func(ct *model.Contact) { ct.Label = ex.Label })
		}
		c.printSystem("PSK session started")

	case "/label":
		c.updateContact(ctx, func(ct *model.Contact) { ct.Label = rest })
		c.printSystem(fmt.Sprintf("labelled %s as %q", c.peer, rest))

	case "/block":
		c.updateContact(ctx, func(ct *model.Contact) { ct.Blocked = true })
		c.printSystem(fmt.Sprintf("blocked %s", c.peer))

	case "/unblock":
		c.updateContact(ctx, func(ct *model.Contact) { ct.Blocked = false })
		c.printSystem(fmt.Sprintf("unblocked %s", c.peer))

	default:
		c.printSystem(fmt.Sprintf("unknown command %s", cmd))
	}
}

// updateContact applies one mutation to the peer's contact record, creating
// it on first use.
func (c *App) updateContact(ctx context.Context, mutate func(*model.Contact)) {
	ct, err := c.contactRepo.Get(ctx, c.address, c.peer)
	if err != nil {
		c.printSystem(fmt.Sprintf("contact lookup failed: %v", err))
		return
	}
	if ct == nil {
		ct = &model.Contact{Owner: c.address, Address: c.peer}
	}

	mutate(ct)
	if err := c.contactRepo.Upsert(ctx, ct); err != nil {
		c.printSystem(fmt.Sprintf("contact update failed: %v", err))
	}
}
