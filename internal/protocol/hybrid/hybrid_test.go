package hybrid

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/CorvidLabs/algochat/internal/protocol/envelope"
	"github.com/CorvidLabs/algochat/internal/protocol/identity"
	"github.com/CorvidLabs/algochat/internal/protocol/ratchet"
)

// Deterministic identities shared with the other implementations: seeds
// 0x00…01 and 0x00…02, PSK 0xAA…AA.
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

func testMessageKey(t *testing.T, counter uint32) []byte {
	t.Helper()
	key, err := ratchet.DeriveMessageKey(bytes.Repeat([]byte{0xAA}, 32), counter)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestBaseRoundTrip(t *testing.T) {
	alice, bob := testParties(t)

	for _, text := range []string{"", "hi", strings.Repeat("x", envelope.MaxBasePlaintext)} {
		env, err := EncryptBase([]byte(text), alice.Public, bob.Public)
		if err != nil {
			t.Fatal(err)
		}
		if len(env.Encode()) > envelope.MaxNoteSize {
			t.Fatalf("envelope exceeds note cap for %d-byte text", len(text))
		}

		got, err := DecryptBase(env, bob.Secret, bob.Public)
		if err != nil {
			t.Fatal(err)
		}
		if got.Text != text {
			t.Errorf("recipient decrypt = %q, want %q", got.Text, text)
		}
	}
}

func TestBaseSenderRecovery(t *testing.T) {
	alice, bob := testParties(t)

	env, err := EncryptBase([]byte("note to future self"), alice.Public, bob.Public)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecryptBase(env, alice.Secret, alice.Public)
	if err != nil {
		t.Fatalf("sender recovery failed: %v", err)
	}
	if got.Text != "note to future self" {
		t.Errorf("sender decrypt = %q", got.Text)
	}
}

func TestPSKRoundTrip(t *testing.T) {
	alice, bob := testParties(t)

	for _, counter := range []uint32{0, 99, 100, 5000} {
		key := testMessageKey(t, counter)
		env, err := EncryptPSK([]byte("Hello PSK!"), alice.Public, bob.Public, key, counter)
		if err != nil {
			t.Fatal(err)
		}
		if env.Counter != counter {
			t.Fatalf("envelope counter = %d, want %d", env.Counter, counter)
		}

		got, err := DecryptPSK(env, bob.Secret, bob.Public, testMessageKey(t, counter))
		if err != nil {
			t.Fatalf("counter %d: %v", counter, err)
		}
		if got.Text != "Hello PSK!" {
			t.Errorf("counter %d: decrypt = %q", counter, got.Text)
		}
	}
}

func TestPSKSenderRecovery(t *testing.T) {
	alice, bob := testParties(t)
	key := testMessageKey(t, 3)

	env, err := EncryptPSK([]byte("mine as well"), alice.Public, bob.Public, key, 3)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecryptPSK(env, alice.Secret, alice.Public, testMessageKey(t, 3))
	if err != nil {
		t.Fatalf("sender recovery failed: %v", err)
	}
	if got.Text != "mine as well" {
		t.Errorf("sender decrypt = %q", got.Text)
	}
}

func TestPSKWrongCounterKey(t *testing.T) {
	alice, bob := testParties(t)

	env, err := EncryptPSK([]byte("Hello PSK!"), alice.Public, bob.Public, testMessageKey(t, 0), 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := DecryptPSK(env, bob.Secret, bob.Public, testMessageKey(t, 1)); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("got %v, want ErrDecryptFailed", err)
	}
}

func TestDecryptWithWrongPeer(t *testing.T) {
	alice, bob := testParties(t)
	eveSeed := make([]byte, 32)
	eveSeed[31] = 0x03
	eve, err := identity.DeriveKeyPair(eveSeed)
	if err != nil {
		t.Fatal(err)
	}

	env, err := EncryptBase([]byte("for bob only"), alice.Public, bob.Public)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := DecryptBase(env, eve.Secret, eve.Public); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("got %v, want ErrDecryptFailed", err)
	}
}

// Flipping any byte after the discriminator must make decryption fail: on
// the recipient path, or on the sender-recovery path for the sender-key slot.
func TestBitFlips(t *testing.T) {
	alice, bob := testParties(t)

	env, err := EncryptBase([]byte("integrity matters"), alice.Public, bob.Public)
	if err != nil {
		t.Fatal(err)
	}
	raw := env.Encode()

	// skip the two discriminator bytes; those fail at decode instead
	for i := 2; i < len(raw); i++ {
		flipped := append([]byte(nil), raw...)
		flipped[i] ^= 0x40

		tampered, err := envelope.DecodeBase(flipped)
		if err != nil {
			t.Fatalf("byte %d: decode rejected flip: %v", i, err)
		}

		// the sender-key slot is only read on the sender-recovery path;
		// everything else is covered by the recipient path
		if i >= 78 && i < 126 {
			if _, err := DecryptBase(tampered, alice.Secret, alice.Public); err == nil {
				t.Errorf("byte %d: slot flip went undetected", i)
			}
			continue
		}
		if _, err := DecryptBase(tampered, bob.Secret, bob.Public); err == nil {
			t.Errorf("byte %d: flip went undetected", i)
		}
	}
}

func TestPSKBitFlips(t *testing.T) {
	alice, bob := testParties(t)
	key := testMessageKey(t, 9)

	env, err := EncryptPSK([]byte("integrity matters"), alice.Public, bob.Public, key, 9)
	if err != nil {
		t.Fatal(err)
	}
	raw := env.Encode()

	// the counter bytes select a different message key downstream; here we
	// flip everything after them
	for i := 6; i < len(raw); i++ {
		flipped := append([]byte(nil), raw...)
		flipped[i] ^= 0x40

		tampered, err := envelope.DecodePSK(flipped)
		if err != nil {
			t.Fatalf("byte %d: decode rejected flip: %v", i, err)
		}

		if i >= 82 && i < 130 {
			if _, err := DecryptPSK(tampered, alice.Secret, alice.Public, testMessageKey(t, 9)); err == nil {
				t.Errorf("byte %d: slot flip went undetected", i)
			}
			continue
		}
		if _, err := DecryptPSK(tampered, bob.Secret, bob.Public, testMessageKey(t, 9)); err == nil {
			t.Errorf("byte %d: flip went undetected", i)
		}
	}
}

func TestPayloadTooLarge(t *testing.T) {
	alice, bob := testParties(t)

	if _, err := EncryptBase(make([]byte, envelope.MaxBasePlaintext+1), alice.Public, bob.Public); !errors.Is(err, envelope.ErrPayloadTooLarge) {
		t.Errorf("base: got %v, want ErrPayloadTooLarge", err)
	}
	if _, err := EncryptPSK(make([]byte, envelope.MaxPSKPlaintext+1), alice.Public, bob.Public, testMessageKey(t, 0), 0); !errors.Is(err, envelope.ErrPayloadTooLarge) {
		t.Errorf("psk: got %v, want ErrPayloadTooLarge", err)
	}
}

func TestEnvelopesAreRandomized(t *testing.T) {
	alice, bob := testParties(t)

	a, err := EncryptBase([]byte("same text"), alice.Public, bob.Public)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncryptBase([]byte("same text"), alice.Public, bob.Public)
	if err != nil {
		t.Fatal(err)
	}
	if a.Nonce == b.Nonce {
		t.Error("nonce reused across messages")
	}
	if a.EphemeralPub == b.EphemeralPub {
		t.Error("ephemeral key reused across messages")
	}
	if bytes.Equal(a.Ciphertext, b.Ciphertext) {
		t.Error("identical ciphertexts for independent encryptions")
	}
}

func TestPSKRejectsShortMessageKey(t *testing.T) {
	alice, bob := testParties(t)

	if _, err := EncryptPSK([]byte("x"), alice.Public, bob.Public, make([]byte, 16), 0); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("encrypt: got %v, want ErrInvalidKeyLength", err)
	}
}
