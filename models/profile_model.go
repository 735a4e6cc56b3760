package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const DefaultProfilePicture = "https://www.nicepng.com/png/detail/933-9332131_profile-picture-default-png.png"

type Profile struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	User           primitive.ObjectID   `json:"user" bson:"user"`
	ProfilePicture string               `json:"profile_picture" bson:"profile_picture"`
	About          string               `json:"about" bson:"about"`
	Posts          []primitive.ObjectID `json:"posts" bson:"posts"`
}
