package app

import (
	"context"

	"github.com/CorvidLabs/algochat/internal/model"
	"github.com/CorvidLabs/algochat/internal/protocol/dispatch"
	"github.com/CorvidLabs/algochat/internal/protocol/hybrid"
	"github.com/CorvidLabs/algochat/internal/protocol/ratchet"
	"github.com/CorvidLabs/algochat/internal/utils/log"

	"go.uber.org/zap"
)

// SendMessage encrypts and publishes one chat message. With a PSK session
// the hybrid PSK protocol is used; otherwise the base protocol.
func (c *App) SendMessage(ctx context.Context, msg string) error {
	payload := hybrid.EncodeMessage(msg, "", "")

	var data []byte
	if c.session != nil {
		counter, err := c.session.State.AdvanceSend()
		if err != nil {
			return err
		}
		messageKey, err := ratchet.DeriveMessageKey(c.session.InitialPSK, counter)
		if err != nil {
			return err
		}
		env, err := hybrid.EncryptPSK(payload, c.keys.Public, c.peerKey, messageKey, counter)
		for i := range messageKey {
			messageKey[i] = 0
		}
		if err != nil {
			return err
		}

		// persist the advanced counter before the note leaves: a crash
		// after publish but before persistence must skip, not reuse
		if err := c.saveSession(ctx); err != nil {
			return err
		}
		data = env.Encode()
	} else {
		env, err := hybrid.EncryptBase(payload, c.keys.Public, c.peerKey)
		if err != nil {
			return err
		}
		data = env.Encode()
	}

	if err := c.conn.WriteJSON(&model.Note{From: c.address, To: c.peer, Data: data}); err != nil {
		return err
	}

	c.printChat("You", "yellow", msg)
	return nil
}

// ReceiveNote classifies, decrypts, and displays one incoming note.
func (c *App) ReceiveNote(ctx context.Context, note *model.Note) error {
	blocked, err := c.contactRepo.IsBlocked(ctx, c.address, note.From)
	if err != nil {
		log.Error("contact lookup failed", zap.Error(err))
	} else if blocked {
		log.Debug("dropping note from blocked sender", zap.String("from", note.From))
		return nil
	}

	res, err := dispatch.Process(note.Data, c.keys, c.session)
	if err != nil {
		return err
	}

	switch res.Kind {
	case dispatch.KindOther:
		// not chat traffic; skip silently
		return nil
	case dispatch.KindPSK:
		// the window moved; persist it
		if err := c.saveSession(ctx); err != nil {
			log.Error("persist session failed", zap.Error(err))
		}
	}

	if res.Content.Kind == hybrid.ContentKeyPublish {
		log.Debug("key-publish record", zap.String("from", note.From))
		return nil
	}

	label := note.From
	if contact, err := c.contactRepo.Get(ctx, c.address, note.From); err == nil && contact != nil && contact.Label != "" {
		label = contact.Label
	}

	text := res.Content.Text
	if res.Content.ReplyToPreview != "" {
		text = "↳ " + res.Content.ReplyToPreview + "\n" + text
	}
	c.printChat(label, "green", text)
	return nil
}
