package contact

import (
	"context"

	"github.com/CorvidLabs/algochat/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	ContactRepo struct {
		collection *mongo.Collection
	}
)

func NewContactRepo(db *mongo.Database) *ContactRepo {
	return &ContactRepo{
		collection: db.Collection("contacts"),
	}
}

func (r *ContactRepo) Get(ctx context.Context, owner, address string) (*model.Contact, error) {
	filter := bson.M{
		"owner":   owner,
		"address": address,
	}

	var c model.Contact
	err := r.collection.FindOne(ctx, filter).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *ContactRepo) List(ctx context.Context, owner string) ([]*model.Contact, error) {
	cur, err := r.collection.Find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var contacts []*model.Contact
	if err := cur.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Upsert stores the label and block flag for a peer address.
func (r *ContactRepo) Upsert(ctx context.Context, c *model.Contact) error {
	filter := bson.M{
		"owner":   c.Owner,
		"address": c.Address,
	}
	update := bson.M{
		"$set": bson.M{
			"label":   c.Label,
			"blocked": c.Blocked,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// IsBlocked is the receive-path check: blocked senders are dropped before
// classification and any decrypt work.
func (r *ContactRepo) IsBlocked(ctx context.Context, owner, address string) (bool, error) {
	c, err := r.Get(ctx, owner, address)
	if err != nil {
		return false, err
	}
	return c != nil && c.Blocked, nil
}
