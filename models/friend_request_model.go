package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FriendRequest struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FromUser   primitive.ObjectID `json:"from_user" bson:"from_user"`
	ToUser     primitive.ObjectID `json:"to_user" bson:"to_user"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	IsAccepted bool               `json:"is_accepted" bson:"is_accepted"`
}

// FriendRequestView is the populated shape returned to clients.
type FriendRequestView struct {
	ID         primitive.ObjectID `json:"id"`
	FromUser   UserSummary        `json:"from_user"`
	ToUser     UserSummary        `json:"to_user"`
	CreatedAt  time.Time          `json:"created_at"`
	IsAccepted bool               `json:"is_accepted"`
}
