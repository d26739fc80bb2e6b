package app

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CorvidLabs/algochat/internal/config"
	"github.com/CorvidLabs/algochat/internal/model"
	"github.com/CorvidLabs/algochat/internal/protocol/dispatch"
	"github.com/CorvidLabs/algochat/internal/protocol/identity"
	"github.com/CorvidLabs/algochat/internal/repository/contact"
	"github.com/CorvidLabs/algochat/internal/service/redis"
	"github.com/CorvidLabs/algochat/internal/utils/log"
	"github.com/CorvidLabs/algochat/internal/vault"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

type (
	App struct {
		app     *tview.Application
		chatbox *tview.TextView
		input   *tview.InputField

		cfg          *config.Config
		redisService *redis.RedisService
		contactRepo  *contact.ContactRepo
		vault        *vault.Vault

		address string
		keys    *identity.KeyPair
		sigPub  ed25519.PublicKey
		sigPriv ed25519.PrivateKey

		peer    string
		peerKey [32]byte

		// nil until a PSK is adopted for the peer
		session *dispatch.Session

		conn *websocket.Conn
	}
)

func NewApp(cfg *config.Config, contactRepo *contact.ContactRepo, redisSvc *redis.RedisService, v *vault.Vault) *App {
	return &App{
		app:          tview.NewApplication(),
		cfg:          cfg,
		contactRepo:  contactRepo,
		redisService: redisSvc,
		vault:        v,
	}
}

func (c *App) Run(ctx context.Context, address, peer string) {
	c.address = address
	c.peer = peer

	if err := c.loadIdentity(); err != nil {
		log.Fatal("load identity failed", zap.Error(err))
	}

	if err := c.publishKey(); err != nil {
		log.Fatal("publish key failed", zap.Error(err))
	}

	peerKey, err := c.fetchPeerKey(c.peer)
	if err != nil {
		log.Fatal("peer has not published a key yet", zap.Error(err))
	}
	copy(c.peerKey[:], peerKey.EncryptionKey)

	session, err := c.getSession(ctx)
	if err != nil {
		log.Error("session cache unreadable, continuing without PSK", zap.Error(err))
	}
	c.session = session

	c.conn, err = c.dialNotes()
	if err != nil {
		log.Fatal("dial relay failed", zap.Error(err))
	}

	go c.listenNotes(ctx)
	c.renderUI(ctx)
}

func (c *App) Stop() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// blocking function
func (c *App) renderUI(ctx context.Context) {
	c.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	c.chatbox.SetBorder(true).SetTitle(fmt.Sprintf(" Chat with %s ", c.peer))

	c.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	c.input.SetBorder(true).SetTitle(" New Message ")

	c.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := c.input.GetText()
		if text == "" {
			return
		}

		if strings.HasPrefix(text, "/") {
			c.handleCommand(ctx, text)
			c.input.SetText("")
			return
		}

		c.input.SetText("")
		go func(msg string) {
			if err := c.SendMessage(ctx, msg); err != nil {
				c.printSystem(fmt.Sprintf("send failed: %v", err))
			}
		}(text)
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.chatbox, 0, 1, false).
		AddItem(c.input, 3, 0, true)

	if err := c.app.SetRoot(layout, true).SetFocus(c.input).Run(); err != nil {
		log.Fatal("cannot init app", zap.Error(err))
	}
}

func (c *App) listenNotes(ctx context.Context) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug("relay socket closed", zap.Error(err))
			c.conn.Close()
			break
		}

		var note model.Note
		if err := json.Unmarshal(data, &note); err != nil {
			log.Error("unmarshal note failed", zap.Error(err))
			continue
		}

		if err := c.ReceiveNote(ctx, &note); err != nil {
			// intentionally opaque: no hint which layer rejected it
			c.printSystem(fmt.Sprintf("could not decrypt a message from %s", note.From))
		}
	}
}

func (c *App) printSystem(msg string) {
	c.app.QueueUpdateDraw(func() {
		fmt.Fprintf(c.chatbox, "[gray]%s[-]\n", tview.Escape(msg))
		c.chatbox.ScrollToEnd()
	})
}

func (c *App) printChat(prefix, color, msg string) {
	c.app.QueueUpdateDraw(func() {
		fmt.Fprintf(c.chatbox, "[%s]%s:[-] %s\n", color, tview.Escape(prefix), tview.Escape(msg))
		c.chatbox.ScrollToEnd()
	})
}
