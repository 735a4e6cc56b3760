package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostLike struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User    primitive.ObjectID `json:"user" bson:"user"`
	Post    primitive.ObjectID `json:"post" bson:"post"`
	LikedAt time.Time          `json:"liked_at" bson:"liked_at"`
}

type CommentLike struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User    primitive.ObjectID `json:"user" bson:"user"`
	Comment primitive.ObjectID `json:"comment" bson:"comment"`
	LikedAt time.Time          `json:"liked_at" bson:"liked_at"`
}
