package envelope

import "encoding/binary"

type (
	// PSK is the hybrid envelope: ephemeral ECDH plus a ratcheted
	// pre-shared key selected by the counter field.
	PSK struct {
		Counter            uint32
		SenderPub          [PublicKeySize]byte
		EphemeralPub       [PublicKeySize]byte
		Nonce              [NonceSize]byte
		EncryptedSenderKey [SenderKeySlotSize]byte
		Ciphertext         []byte
	}
)

// Encode serialises the envelope as a transaction note.
func (e *PSK) Encode() []byte {
	buf := make([]byte, 0, PSKHeaderSize+len(e.Ciphertext))
	buf = append(buf, Version, ProtocolPSK)
	buf = binary.BigEndian.AppendUint32(buf, e.Counter)
	buf = append(buf, e.SenderPub[:]...)
	buf = append(buf, e.EphemeralPub[:]...)
	buf = append(buf, e.Nonce[:]...)
	buf = append(buf, e.EncryptedSenderKey[:]...)
	buf = append(buf, e.Ciphertext...)
	return buf
}

// DecodePSK splits a note into the fixed PSK-envelope slices.
func DecodePSK(b []byte) (*PSK, error) {
	if len(b) < MinPSKSize {
		return nil, ErrTooShort
	}
	if len(b) > MaxNoteSize {
		return nil, ErrPayloadTooLarge
	}
	if b[0] != Version {
		return nil, ErrUnsupportedVersion
	}
	if b[1] != ProtocolPSK {
		return nil, ErrUnsupportedProtocol
	}

	e := &PSK{}
	e.Counter = binary.BigEndian.Uint32(b[2:6])
	off := 2 + CounterSize
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

// IsPSK reports whether a note classifies as a PSK envelope.
func IsPSK(b []byte) bool {
	return len(b) >= MinPSKSize && b[0] == Version && b[1] == ProtocolPSK
}
