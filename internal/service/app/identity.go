package app

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/CorvidLabs/algochat/internal/cryptographic/signature"
	"github.com/CorvidLabs/algochat/internal/protocol/identity"
)

// loadIdentity reads the 32-byte account seed and derives both halves of the
// identity from it: the ed25519 signing pair and the X25519 encryption pair.
// A missing seed file is created on first run.
func (c *App) loadIdentity() error {
	seed, err := os.ReadFile(c.cfg.Account.SeedFile)
	if os.IsNotExist(err) {
		seed = make([]byte, identity.SeedSize)
		if _, err := io.ReadFull(rand.Reader, seed); err != nil {
			return fmt.Errorf("generate seed: %w", err)
		}
		if err := os.WriteFile(c.cfg.Account.SeedFile, seed, 0o600); err != nil {
			return fmt.Errorf("write seed file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	keys, err := identity.DeriveKeyPair(seed)
	if err != nil {
		return err
	}

	c.keys = keys
	c.sigPub, c.sigPriv = signature.Ed25519FromSeed(seed)
	return nil
}
