package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Post      primitive.ObjectID   `json:"post" bson:"post"`
	Content   string               `json:"content" bson:"content"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	LikeCount int64                `json:"like_count" bson:"like_count"`
}
