package envelope

type (
	// Base is the forward-secret envelope without a pre-shared key.
	Base struct {
		SenderPub          [PublicKeySize]byte
		EphemeralPub       [PublicKeySize]byte
		Nonce              [NonceSize]byte
		EncryptedSenderKey [SenderKeySlotSize]byte
		Ciphertext         []byte
	}
)

// Encode serialises the envelope as a transaction note.
func (e *Base) Encode() []byte {
	buf := make([]byte, 0, BaseHeaderSize+len(e.Ciphertext))
	buf = append(buf, Version, ProtocolBase)
	buf = append(buf, e.SenderPub[:]...)
	buf = append(buf, e.EphemeralPub[:]...)
	buf = append(buf, e.Nonce[:]...)
	buf = append(buf, e.EncryptedSenderKey[:]...)
	buf = append(buf, e.Ciphertext...)
	return buf
}

// DecodeBase splits a note into the fixed base-envelope slices.
func DecodeBase(b []byte) (*Base, error) {
	if len(b) < MinBaseSize {
		return nil, ErrTooShort
	}
	if len(b) > MaxNoteSize {
		return nil, ErrPayloadTooLarge
	}
	if b[0] != Version {
		return nil, ErrUnsupportedVersion
	}
	if b[1] != ProtocolBase {
		return nil, ErrUnsupportedProtocol
	}

	e := &Base{}
	off := 2
	copy(e.SenderPub[:], b[off:off+PublicKeySize])
	off += PublicKeySize
	copy(e.EphemeralPub[:], b[off:off+PublicKeySize])
	off += PublicKeySize
	copy(e.Nonce[:], b[off:off+NonceSize])
	off += NonceSize
	copy(e.EncryptedSenderKey[:], b[off:off+SenderKeySlotSize])
	off += SenderKeySlotSize
	e.Ciphertext = make([]byte, len(b)-off)
	copy(e.Ciphertext, b[off:])
	return e, nil
}

// IsBase reports whether a note classifies as a base envelope.
func IsBase(b []byte) bool {
	return len(b) >= MinBaseSize && b[0] == Version && b[1] == ProtocolBase
}
