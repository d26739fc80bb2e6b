package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	// PeerKey is a published encryption key: the directory-side record of
	// a key-publish announcement. The ed25519 signature covers
	// address || encryption_key and binds the encryption identity to the
	// signing identity.
	PeerKey struct {
		ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
		Address       string             `bson:"address" json:"address"`
		EncryptionKey []byte             `bson:"encryption_key" json:"encryption_key"`
		SigningKey    []byte             `bson:"signing_key" json:"signing_key"`
		Signature     []byte             `bson:"signature" json:"signature"`
		PublishedAt   time.Time          `bson:"published_at" json:"published_at"`
	}
)

// SignedPayload is the byte string the publish signature covers.
func (k *PeerKey) SignedPayload() []byte {
	b := make([]byte, 0, len(k.Address)+len(k.EncryptionKey))
	b = append(b, []byte(k.Address)...)
	b = append(b, k.EncryptionKey...)
	return b
}
