package dispatch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/CorvidLabs/algochat/internal/protocol/hybrid"
	"github.com/CorvidLabs/algochat/internal/protocol/identity"
	"github.com/CorvidLabs/algochat/internal/protocol/ratchet"
)

func testParties(t *testing.T) (alice, bob *identity.KeyPair) {
	t.Helper()
	aliceSeed := make([]byte, 32)
	aliceSeed[31] = 0x01
	bobSeed := make([]byte, 32)
	bobSeed[31] = 0x02

	var err error
	if alice, err = identity.DeriveKeyPair(aliceSeed); err != nil {
		t.Fatal(err)
	}
	if bob, err = identity.DeriveKeyPair(bobSeed); err != nil {
		t.Fatal(err)
	}
	return alice, bob
}

func testSession(t *testing.T) *Session {
	t.Helper()
	return &Session{
		InitialPSK: bytes.Repeat([]byte{0xAA}, 32),
		State:      ratchet.NewCounterState(),
	}
}

func pskNote(t *testing.T, text string, from, to *identity.KeyPair, s *Session, counter uint32) []byte {
	t.Helper()
	key, err := ratchet.DeriveMessageKey(s.InitialPSK, counter)
	if err != nil {
		t.Fatal(err)
	}
	env, err := hybrid.EncryptPSK([]byte(text), from.Public, to.Public, key, counter)
	if err != nil {
		t.Fatal(err)
	}
	return env.Encode()
}

func TestClassify(t *testing.T) {
	alice, bob := testParties(t)

	baseEnv, err := hybrid.EncryptBase([]byte("x"), alice.Public, bob.Public)
	if err != nil {
		t.Fatal(err)
	}
	if got := Classify(baseEnv.Encode()); got != KindBase {
		t.Errorf("base note classified as %v", got)
	}

	if got := Classify(pskNote(t, "x", alice, bob, testSession(t), 0)); got != KindPSK {
		t.Errorf("psk note classified as %v", got)
	}

	for _, note := range [][]byte{nil, []byte("gm"), []byte(`{"kind":"vote"}`), make([]byte, 300)} {
		if got := Classify(note); got != KindOther {
			t.Errorf("foreign note %q classified as %v", note, got)
		}
	}
}

func TestProcessBase(t *testing.T) {
	alice, bob := testParties(t)

	env, err := hybrid.EncryptBase([]byte("hello"), alice.Public, bob.Public)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Process(env.Encode(), bob, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != KindBase || res.Content.Text != "hello" {
		t.Errorf("result = %+v", res)
	}
	if res.Sender != alice.Public {
		t.Error("sender not surfaced")
	}
}

// The known-answer scenario: seeds 0x00…01 / 0x00…02, PSK 0xAA…AA,
// "Hello PSK!" at counter 0.
func TestProcessPSK(t *testing.T) {
	alice, bob := testParties(t)
	session := testSession(t)

	res, err := Process(pskNote(t, "Hello PSK!", alice, bob, session, 0), bob, session)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != KindPSK || res.Counter != 0 || res.Content.Text != "Hello PSK!" {
		t.Errorf("result = %+v", res)
	}
	if _, seen := session.State.Seen[0]; !seen {
		t.Error("counter not recorded after successful decrypt")
	}
}

func TestProcessOther(t *testing.T) {
	_, bob := testParties(t)

	res, err := Process([]byte("some unrelated transaction note"), bob, nil)
	if err != nil {
		t.Fatalf("foreign notes must not error: %v", err)
	}
	if res.Kind != KindOther {
		t.Errorf("kind = %v, want KindOther", res.Kind)
	}
}

func TestProcessNoSessionKey(t *testing.T) {
	alice, bob := testParties(t)

	note := pskNote(t, "x", alice, bob, testSession(t), 0)
	if _, err := Process(note, bob, nil); !errors.Is(err, ErrNoSessionKey) {
		t.Errorf("got %v, want ErrNoSessionKey", err)
	}
}

func TestProcessReplay(t *testing.T) {
	alice, bob := testParties(t)
	session := testSession(t)

	note := pskNote(t, "once", alice, bob, session, 5)
	if _, err := Process(note, bob, session); err != nil {
		t.Fatal(err)
	}
	if _, err := Process(note, bob, session); !errors.Is(err, ratchet.ErrCounterReplay) {
		t.Errorf("got %v, want ErrCounterReplay", err)
	}
}

func TestProcessOutOfWindow(t *testing.T) {
	alice, bob := testParties(t)
	session := testSession(t)

	if _, err := Process(pskNote(t, "high", alice, bob, session, 1000), bob, session); err != nil {
		t.Fatal(err)
	}
	if _, err := Process(pskNote(t, "stale", alice, bob, session, 500), bob, session); !errors.Is(err, ratchet.ErrCounterOutOfWindow) {
		t.Errorf("got %v, want ErrCounterOutOfWindow", err)
	}
}

// A failed decrypt must not poison the replay window.
func TestFailedDecryptNotRecorded(t *testing.T) {
	alice, bob := testParties(t)
	session := testSession(t)

	wrong := testSession(t)
	wrong.InitialPSK = bytes.Repeat([]byte{0xBB}, 32)
	note := pskNote(t, "forged", alice, bob, wrong, 3)

	if _, err := Process(note, bob, session); !errors.Is(err, hybrid.ErrDecryptFailed) {
		t.Fatalf("got %v, want ErrDecryptFailed", err)
	}
	if _, seen := session.State.Seen[3]; seen {
		t.Error("forged counter recorded")
	}

	// the genuine counter 3 must still be acceptable
	if _, err := Process(pskNote(t, "real", alice, bob, session, 3), bob, session); err != nil {
		t.Errorf("genuine counter rejected after forgery: %v", err)
	}
}

// Our own notes read back off the ledger decrypt via the sender slot and
// leave the receive window untouched.
func TestProcessSelfAuthored(t *testing.T) {
	alice, bob := testParties(t)
	session := testSession(t)

	note := pskNote(t, "sent earlier", alice, bob, session, 0)
	res, err := Process(note, alice, session)
	if err != nil {
		t.Fatal(err)
	}
	if res.Content.Text != "sent earlier" {
		t.Errorf("self decrypt = %q", res.Content.Text)
	}
	if len(session.State.Seen) != 0 {
		t.Error("own send counter leaked into the receive window")
	}
}
