package services

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-server/models"
	"social-server/utils/authz"
	"social-server/utils/errors"
	"social-server/utils/query"
)

const maxRecommendations = 5

type TimelineService struct {
	posts *mongo.Collection
	users *mongo.Collection
}

// Recommendation points a user at the endpoint for befriending a stranger.
type Recommendation struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	SendFriendRequest string `json:"send_friend_request"`
}

// Timeline is the feed payload: the user's and friends' posts plus up to
// five friend recommendations.
type Timeline struct {
	Posts                 []PostView       `json:"posts"`
	FriendRecommendations []Recommendation `json:"friendRecommendations"`
}

func NewTimelineService(db *mongo.Database) *TimelineService {
	return &TimelineService{posts: db.Collection("posts"), users: db.Collection("users")}
}

// Get assembles the timeline for the authenticated user, honoring the
// sort/order/limit directives.
func (s *TimelineService) Get(ctx context.Context, actor authz.Identity, directives query.Directives) (Timeline, error) {
	id, err := parseID(actor.UserID)
	if err != nil {
		return Timeline{}, err
	}

	var user models.User
	err = s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return Timeline{}, errors.NewAPIError("NOT_FOUND", "User not found", http.StatusNotFound)
	}
	if err != nil {
		return Timeline{}, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}

	authorIDs := append([]primitive.ObjectID{user.ID}, user.Friends...)

	findOpts := options.Find()
	if directives.Sort != nil {
		findOpts.SetSort(directives.Sort)
	}
	if directives.Limit > 0 {
		findOpts.SetLimit(directives.Limit)
	}
	cursor, err := s.posts.Find(ctx, bson.M{"author": bson.M{"$in": authorIDs}}, findOpts)
	if err != nil {
		return Timeline{}, errors.Wrap(err, "DB_ERROR", "Failed to load posts", http.StatusInternalServerError)
	}
	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return Timeline{}, errors.Wrap(err, "DB_ERROR", "Failed to decode posts", http.StatusInternalServerError)
	}

	postAuthors := make([]primitive.ObjectID, 0, len(posts))
	for _, post := range posts {
		postAuthors = append(postAuthors, post.Author)
	}
	authors, err := userSummaries(ctx, s.users, postAuthors)
	if err != nil {
		return Timeline{}, err
	}
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, PostView{Post: post, Author: authors[post.Author]})
	}

	recommendations, err := s.recommend(ctx, authorIDs)
	if err != nil {
		return Timeline{}, err
	}

	return Timeline{Posts: views, FriendRecommendations: recommendations}, nil
}

// recommend picks up to five users who are neither the actor nor already
// friends, each tagged with the send-request affordance.
func (s *TimelineService) recommend(ctx context.Context, excluded []primitive.ObjectID) ([]Recommendation, error) {
	opts := options.Find().SetProjection(summaryProjection).SetLimit(maxRecommendations)
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$nin": excluded}}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load recommendations", http.StatusInternalServerError)
	}
	var strangers []models.UserSummary
	if err := cursor.All(ctx, &strangers); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode recommendations", http.StatusInternalServerError)
	}

	recommendations := make([]Recommendation, 0, len(strangers))
	for _, stranger := range strangers {
		recommendations = append(recommendations, Recommendation{
			FirstName:         stranger.FirstName,
			LastName:          stranger.LastName,
			SendFriendRequest: "POST /users/friend-request/" + stranger.ID.Hex(),
		})
	}
	return recommendations, nil
}
