package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Content   string               `json:"content" bson:"content"`
	PostImg   string               `json:"post_img,omitempty" bson:"post_img,omitempty"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
	Comments  []primitive.ObjectID `json:"comments" bson:"comments"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	LikeCount int64                `json:"like_count" bson:"like_count"`
}
