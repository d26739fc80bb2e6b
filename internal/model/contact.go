package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type (
	// Contact is a locally owned label and block flag for a peer address.
	Contact struct {
		ID      primitive.ObjectID `bson:"_id,omitempty"`
		Owner   string             `bson:"owner"`
		Address string             `bson:"address"`
		Label   string             `bson:"label"`
		Blocked bool               `bson:"blocked"`
	}
)
