package services

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-server/models"
	"social-server/utils/authz"
	"social-server/utils/errors"
)

type UserService struct {
	users        *mongo.Collection
	profiles     *mongo.Collection
	posts        *mongo.Collection
	comments     *mongo.Collection
	postLikes    *mongo.Collection
	commentLikes *mongo.Collection
	requests     *mongo.Collection

	postService    *PostService
	commentService *CommentService
}

// ProfileView is a profile with the owning user and posts resolved.
type ProfileView struct {
	ID             primitive.ObjectID `json:"id"`
	User           models.UserSummary `json:"user"`
	ProfilePicture string             `json:"profile_picture"`
	About          string             `json:"about"`
	Posts          []models.Post      `json:"posts"`
}

// UpdateUserInput carries the mutable user and profile fields; empty
// strings leave the field unchanged.
type UpdateUserInput struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	About          string `json:"about"`
	ProfilePicture string `json:"profile_picture"`
}

func NewUserService(db *mongo.Database, postService *PostService, commentService *CommentService) *UserService {
	return &UserService{
		users:          db.Collection("users"),
		profiles:       db.Collection("profiles"),
		posts:          db.Collection("posts"),
		comments:       db.Collection("comments"),
		postLikes:      db.Collection("post_likes"),
		commentLikes:   db.Collection("comment_likes"),
		requests:       db.Collection("friend_requests"),
		postService:    postService,
		commentService: commentService,
	}
}

func (s *UserService) findUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, errors.NewAPIError("NOT_FOUND", "User not found", http.StatusNotFound)
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	return user, nil
}

// List returns summaries of every user.
func (s *UserService) List(ctx context.Context) ([]models.UserSummary, error) {
	cursor, err := s.users.Find(ctx, bson.M{}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load users", http.StatusInternalServerError)
	}
	users := []models.UserSummary{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode users", http.StatusInternalServerError)
	}
	return users, nil
}

// GetProfile returns the user's profile with its posts populated.
func (s *UserService) GetProfile(ctx context.Context, userID string) (ProfileView, error) {
	id, err := parseID(userID)
	if err != nil {
		return ProfileView{}, err
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return ProfileView{}, err
	}

	var profile models.Profile
	err = s.profiles.FindOne(ctx, bson.M{"user": id}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return ProfileView{}, errors.NewAPIError("NOT_FOUND", "Profile not found", http.StatusNotFound)
	}
	if err != nil {
		return ProfileView{}, errors.Wrap(err, "DB_ERROR", "Failed to load profile", http.StatusInternalServerError)
	}

	posts := []models.Post{}
	if len(profile.Posts) > 0 {
		cursor, err := s.posts.Find(ctx, bson.M{"_id": bson.M{"$in": profile.Posts}})
		if err != nil {
			return ProfileView{}, errors.Wrap(err, "DB_ERROR", "Failed to load posts", http.StatusInternalServerError)
		}
		if err := cursor.All(ctx, &posts); err != nil {
			return ProfileView{}, errors.Wrap(err, "DB_ERROR", "Failed to decode posts", http.StatusInternalServerError)
		}
	}

	return ProfileView{
		ID:             profile.ID,
		User:           models.UserSummary{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName},
		ProfilePicture: profile.ProfilePicture,
		About:          profile.About,
		Posts:          posts,
	}, nil
}

// GetFriends returns summaries of the user's friends.
func (s *UserService) GetFriends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	summaries, err := userSummaries(ctx, s.users, user.Friends)
	if err != nil {
		return nil, err
	}
	friends := make([]models.UserSummary, 0, len(user.Friends))
	for _, friendID := range user.Friends {
		if summary, ok := summaries[friendID]; ok {
			friends = append(friends, summary)
		}
	}
	return friends, nil
}

// Update rewrites the mutable user and profile fields after the ownership
// check.
func (s *UserService) Update(ctx context.Context, userID string, actor authz.Identity, input UpdateUserInput) (models.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !authz.CanMutate(actor, user.ID.Hex()) {
		return models.User{}, errors.NewAPIError("FORBIDDEN", "You are trying to update another user", http.StatusForbidden)
	}

	userFields := bson.M{}
	if name := strings.TrimSpace(input.FirstName); name != "" {
		userFields["first_name"] = name
	}
	if name := strings.TrimSpace(input.LastName); name != "" {
		userFields["last_name"] = name
	}
	if len(userFields) > 0 {
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": userFields}); err != nil {
			return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to update user", http.StatusInternalServerError)
		}
	}

	profileFields := bson.M{}
	if about := strings.TrimSpace(input.About); about != "" {
		profileFields["about"] = about
	}
	if input.ProfilePicture != "" {
		profileFields["profile_picture"] = input.ProfilePicture
	}
	if len(profileFields) > 0 {
		if _, err := s.profiles.UpdateOne(ctx, bson.M{"user": id}, bson.M{"$set": profileFields}); err != nil {
			return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to update profile", http.StatusInternalServerError)
		}
	}

	user, err = s.findUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

// Delete removes the user and everything hanging off it: profile, authored
// posts (with their comment and like cascades), authored comments, likes
// given (with counters decremented), friendships and friend requests. No
// dangling reference survives.
func (s *UserService) Delete(ctx context.Context, userID string, actor authz.Identity) (models.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !authz.CanMutate(actor, user.ID.Hex()) {
		return models.User{}, errors.NewAPIError("FORBIDDEN", "You are trying to delete another user", http.StatusForbidden)
	}

	// Authored posts carry their own cascade.
	cursor, err := s.posts.Find(ctx, bson.M{"author": id})
	if err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load posts for delete", http.StatusInternalServerError)
	}
	var authoredPosts []models.Post
	if err := cursor.All(ctx, &authoredPosts); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to decode posts for delete", http.StatusInternalServerError)
	}
	for _, post := range authoredPosts {
		if err := s.postService.deleteCascade(ctx, post); err != nil {
			return models.User{}, err
		}
	}

	// Comments the user left on other posts.
	cursor, err = s.comments.Find(ctx, bson.M{"author": id})
	if err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load comments for delete", http.StatusInternalServerError)
	}
	var authoredComments []models.Comment
	if err := cursor.All(ctx, &authoredComments); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to decode comments for delete", http.StatusInternalServerError)
	}
	for _, comment := range authoredComments {
		if err := s.commentService.deleteCascade(ctx, comment); err != nil {
			return models.User{}, err
		}
	}

	// Likes the user gave elsewhere; each pull decrements the counter it
	// guards.
	cursor, err = s.postLikes.Find(ctx, bson.M{"user": id})
	if err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load likes for delete", http.StatusInternalServerError)
	}
	var givenPostLikes []models.PostLike
	if err := cursor.All(ctx, &givenPostLikes); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to decode likes for delete", http.StatusInternalServerError)
	}
	for _, like := range givenPostLikes {
		update := bson.M{"$pull": bson.M{"likes": like.ID}, "$inc": bson.M{"like_count": -1}}
		if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": like.Post, "likes": like.ID}, update); err != nil {
			return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to detach like", http.StatusInternalServerError)
		}
	}
	if _, err := s.postLikes.DeleteMany(ctx, bson.M{"user": id}); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to delete likes", http.StatusInternalServerError)
	}

	cursor, err = s.commentLikes.Find(ctx, bson.M{"user": id})
	if err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to load likes for delete", http.StatusInternalServerError)
	}
	var givenCommentLikes []models.CommentLike
	if err := cursor.All(ctx, &givenCommentLikes); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to decode likes for delete", http.StatusInternalServerError)
	}
	for _, like := range givenCommentLikes {
		update := bson.M{"$pull": bson.M{"likes": like.ID}, "$inc": bson.M{"like_count": -1}}
		if _, err := s.comments.UpdateOne(ctx, bson.M{"_id": like.Comment, "likes": like.ID}, update); err != nil {
			return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to detach like", http.StatusInternalServerError)
		}
	}
	if _, err := s.commentLikes.DeleteMany(ctx, bson.M{"user": id}); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to delete likes", http.StatusInternalServerError)
	}

	// Friendships are symmetric, so pull the user from every friends set.
	if _, err := s.users.UpdateMany(ctx, bson.M{"friends": id}, bson.M{"$pull": bson.M{"friends": id}}); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to remove friendships", http.StatusInternalServerError)
	}
	if _, err := s.requests.DeleteMany(ctx, bson.M{"$or": []bson.M{{"from_user": id}, {"to_user": id}}}); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to delete friend requests", http.StatusInternalServerError)
	}

	if _, err := s.profiles.DeleteOne(ctx, bson.M{"user": id}); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to delete profile", http.StatusInternalServerError)
	}
	if _, err := s.users.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return models.User{}, errors.Wrap(err, "DB_ERROR", "Failed to delete user", http.StatusInternalServerError)
	}

	user.Password = ""
	return user, nil
}
