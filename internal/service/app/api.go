package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/CorvidLabs/algochat/internal/cryptographic/signature"
	"github.com/CorvidLabs/algochat/internal/model"

	"github.com/gorilla/websocket"
)

// publishKey announces our derived encryption key under our address, signed
// with the account's ed25519 key.
func (c *App) publishKey() error {
	record := &model.PeerKey{
		Address:       c.address,
		EncryptionKey: c.keys.Public[:],
		SigningKey:    c.sigPub,
	}
	record.Signature = signature.ED25519Sign(c.sigPriv, record.SignedPayload())

	body, err := json.Marshal(record)
	if err != nil {
		return err
	}

	u := url.URL{Scheme: "http", Host: c.cfg.Relay.Addr, Path: "/keys"}
	resp, err := http.Post(u.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("relay rejected key publish: %s", resp.Status)
	}
	return nil
}

// fetchPeerKey resolves a peer's published encryption key and verifies the
// signature binding it to the peer's signing key.
func (c *App) fetchPeerKey(address string) (*model.PeerKey, error) {
	u := url.URL{Scheme: "http", Host: c.cfg.Relay.Addr, Path: fmt.Sprintf("/keys/%s", address)}

	resp, err := http.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("no key for %s: %s", address, resp.Status)
	}

	var k model.PeerKey
	if err := json.NewDecoder(resp.Body).Decode(&k); err != nil {
		return nil, err
	}

	if !signature.ED25519Verify(k.SigningKey, k.SignedPayload(), k.Signature) {
		return nil, fmt.Errorf("key record for %s has a bad signature", address)
	}
	return &k, nil
}

func (c *App) dialNotes() (*websocket.Conn, error) {
	params := url.Values{
		"addr": []string{c.address},
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     c.cfg.Relay.Addr,
		Path:     "/notes",
		RawQuery: params.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}
