package directory

import (
	"context"
	"time"

	"github.com/CorvidLabs/algochat/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	// DirectoryRepo is the relay-side store of published encryption keys.
	DirectoryRepo struct {
		collection *mongo.Collection
	}
)

func NewDirectoryRepo(db *mongo.Database) *DirectoryRepo {
	return &DirectoryRepo{
		collection: db.Collection("peer_keys"),
	}
}

func (r *DirectoryRepo) GetByAddress(ctx context.Context, address string) (*model.PeerKey, error) {
	filter := bson.M{
		"address": address,
	}

	var k model.PeerKey
	err := r.collection.FindOne(ctx, filter).Decode(&k)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &k, nil
}

// Publish records or replaces the key announcement for an address.
func (r *DirectoryRepo) Publish(ctx context.Context, k *model.PeerKey) error {
	k.PublishedAt = time.Now().UTC()

	filter := bson.M{
		"address": k.Address,
	}
	update := bson.M{
		"$set": bson.M{
			"encryption_key": k.EncryptionKey,
			"signing_key":    k.SigningKey,
			"signature":      k.Signature,
			"published_at":   k.PublishedAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
