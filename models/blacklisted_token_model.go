package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlacklistedToken records a revoked token. The expires_at field backs a
// TTL index, so entries disappear once the token would have expired anyway.
type BlacklistedToken struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Token     string             `json:"token" bson:"token"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
}
