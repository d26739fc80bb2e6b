// Package dispatch classifies raw transaction notes and routes them through
// the matching codec and decrypt path.
package dispatch

import (
	"errors"

	"github.com/CorvidLabs/algochat/internal/protocol/envelope"
	"github.com/CorvidLabs/algochat/internal/protocol/hybrid"
	"github.com/CorvidLabs/algochat/internal/protocol/identity"
	"github.com/CorvidLabs/algochat/internal/protocol/ratchet"
)

// ErrNoSessionKey: a PSK envelope arrived for a peer we hold no PSK for.
var ErrNoSessionKey = errors.New("dispatch: no session key for peer")

type Kind int

const (
	// KindOther marks notes that are not chat traffic at all. Callers
	// skip them; it is not an error.
	KindOther Kind = iota
	KindBase
	KindPSK
)

type (
	// Session is the caller-owned PSK material for one peer. The state
	// is mutated by Process and must be persisted by the caller.
	Session struct {
		InitialPSK []byte
		State      *ratchet.CounterState
	}

	Result struct {
		Kind    Kind
		Counter uint32 // PSK only
		Sender  [32]byte
		Content *hybrid.Content
	}
)

// Classify inspects the leading bytes of a note. Base wins the (impossible
// by construction) tie.
func Classify(note []byte) Kind {
	switch {
	case envelope.IsBase(note):
		return KindBase
	case envelope.IsPSK(note):
		return KindPSK
	default:
		return KindOther
	}
}

// Process decodes and decrypts an incoming note with the receiver's keys.
// For PSK notes the counter is validated before and recorded after the AEAD
// opens, so forged counters cannot poison the window. A KindOther result
// with nil error means the note is someone else's traffic.
func Process(note []byte, keys *identity.KeyPair, session *Session) (*Result, error) {
	switch Classify(note) {
	case KindBase:
		env, err := envelope.DecodeBase(note)
		if err != nil {
			return nil, err
		}
		content, err := hybrid.DecryptBase(env, keys.Secret, keys.Public)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: KindBase, Sender: env.SenderPub, Content: content}, nil

	case KindPSK:
		if session == nil {
			return nil, ErrNoSessionKey
		}
		env, err := envelope.DecodePSK(note)
		if err != nil {
			return nil, err
		}
		// Self-authored notes carry our own send counters; they never
		// touch the receive window.
		self := env.SenderPub == keys.Public
		if !self {
			if err := session.State.ValidateReceive(env.Counter); err != nil {
				return nil, err
			}
		}
		messageKey, err := ratchet.DeriveMessageKey(session.InitialPSK, env.Counter)
		if err != nil {
			return nil, err
		}
		content, err := hybrid.DecryptPSK(env, keys.Secret, keys.Public, messageKey)
		for i := range messageKey {
			messageKey[i] = 0
		}
		if err != nil {
			return nil, err
		}
		if !self {
			session.State.RecordReceive(env.Counter)
		}
		return &Result{Kind: KindPSK, Counter: env.Counter, Sender: env.SenderPub, Content: content}, nil

	default:
		return &Result{Kind: KindOther}, nil
	}
}
