package services

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"social-server/models"
	"social-server/utils/authz"
	"social-server/utils/errors"
)

type PostService struct {
	posts        *mongo.Collection
	profiles     *mongo.Collection
	comments     *mongo.Collection
	postLikes    *mongo.Collection
	commentLikes *mongo.Collection
	users        *mongo.Collection
}

// PostView is a post with its author resolved to a summary.
type PostView struct {
	models.Post
	Author models.UserSummary `json:"author"`
}

func NewPostService(db *mongo.Database) *PostService {
	return &PostService{
		posts:        db.Collection("posts"),
		profiles:     db.Collection("profiles"),
		comments:     db.Collection("comments"),
		postLikes:    db.Collection("post_likes"),
		commentLikes: db.Collection("comment_likes"),
		users:        db.Collection("users"),
	}
}

func (s *PostService) findPost(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	var post models.Post
	err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return models.Post{}, errors.NewAPIError("NOT_FOUND", "Post not found", http.StatusNotFound)
	}
	if err != nil {
		return models.Post{}, errors.Wrap(err, "DB_ERROR", "Failed to load post", http.StatusInternalServerError)
	}
	return post, nil
}

func (s *PostService) view(ctx context.Context, post models.Post) (PostView, error) {
	author, err := userSummary(ctx, s.users, post.Author)
	if err != nil {
		// The author may already be cascade-deleted; return the post anyway.
		author = models.UserSummary{ID: post.Author}
	}
	return PostView{Post: post, Author: author}, nil
}

// Create persists the post and appends it to the author's profile. The
// profile append is compensated by deleting the post if it fails.
func (s *PostService) Create(ctx context.Context, actor authz.Identity, content, postImg string) (PostView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return PostView{}, errors.NewAPIError("VALIDATION_FAILED", "Text can't be empty", http.StatusBadRequest)
	}
	authorID, err := parseID(actor.UserID)
	if err != nil {
		return PostView{}, err
	}

	now := time.Now()
	post := models.Post{
		Author:    authorID,
		Content:   content,
		PostImg:   postImg,
		CreatedAt: now,
		UpdatedAt: now,
		Comments:  []primitive.ObjectID{},
		Likes:     []primitive.ObjectID{},
	}
	result, err := s.posts.InsertOne(ctx, post)
	if err != nil {
		return PostView{}, errors.Wrap(err, "DB_ERROR", "Failed to create post", http.StatusInternalServerError)
	}
	post.ID = result.InsertedID.(primitive.ObjectID)

	update, err := s.profiles.UpdateOne(ctx, bson.M{"user": authorID}, bson.M{"$push": bson.M{"posts": post.ID}})
	if err != nil || update.MatchedCount == 0 {
		if _, delErr := s.posts.DeleteOne(ctx, bson.M{"_id": post.ID}); delErr != nil {
			log.Printf("Failed to roll back post %s after profile append failure: %v", post.ID.Hex(), delErr)
		}
		return PostView{}, errors.NewAPIError("DB_ERROR", "Failed to attach post to profile", http.StatusInternalServerError)
	}

	return s.view(ctx, post)
}

// List returns every post with author summaries.
func (s *PostService) List(ctx context.Context) ([]PostView, error) {
	cursor, err := s.posts.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load posts", http.StatusInternalServerError)
	}
	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode posts", http.StatusInternalServerError)
	}

	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	for _, post := range posts {
		authorIDs = append(authorIDs, post.Author)
	}
	authors, err := userSummaries(ctx, s.users, authorIDs)
	if err != nil {
		return nil, err
	}
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, PostView{Post: post, Author: authors[post.Author]})
	}
	return views, nil
}

// Get returns the post with author summary and populated likes and comments.
func (s *PostService) Get(ctx context.Context, postID string) (PostView, []models.Comment, []models.PostLike, error) {
	id, err := parseID(postID)
	if err != nil {
		return PostView{}, nil, nil, err
	}
	post, err := s.findPost(ctx, id)
	if err != nil {
		return PostView{}, nil, nil, err
	}

	comments := []models.Comment{}
	cursor, err := s.comments.Find(ctx, bson.M{"post": id})
	if err != nil {
		return PostView{}, nil, nil, errors.Wrap(err, "DB_ERROR", "Failed to load comments", http.StatusInternalServerError)
	}
	if err := cursor.All(ctx, &comments); err != nil {
		return PostView{}, nil, nil, errors.Wrap(err, "DB_ERROR", "Failed to decode comments", http.StatusInternalServerError)
	}

	likes := []models.PostLike{}
	cursor, err = s.postLikes.Find(ctx, bson.M{"post": id})
	if err != nil {
		return PostView{}, nil, nil, errors.Wrap(err, "DB_ERROR", "Failed to load likes", http.StatusInternalServerError)
	}
	if err := cursor.All(ctx, &likes); err != nil {
		return PostView{}, nil, nil, errors.Wrap(err, "DB_ERROR", "Failed to decode likes", http.StatusInternalServerError)
	}

	view, err := s.view(ctx, post)
	if err != nil {
		return PostView{}, nil, nil, err
	}
	return view, comments, likes, nil
}

// Update rewrites content and image. Resolution happens before the
// ownership check so an absent post is NotFound, not Forbidden.
func (s *PostService) Update(ctx context.Context, postID string, actor authz.Identity, content, postImg string) (PostView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return PostView{}, errors.NewAPIError("VALIDATION_FAILED", "Text can't be empty", http.StatusBadRequest)
	}
	id, err := parseID(postID)
	if err != nil {
		return PostView{}, err
	}

	post, err := s.findPost(ctx, id)
	if err != nil {
		return PostView{}, err
	}
	if !authz.CanMutate(actor, post.Author.Hex()) {
		return PostView{}, errors.NewAPIError("FORBIDDEN", "You are trying to update another users post", http.StatusForbidden)
	}

	fields := bson.M{"content": content, "updated_at": time.Now()}
	if postImg != "" {
		fields["post_img"] = postImg
	}
	if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields}); err != nil {
		return PostView{}, errors.Wrap(err, "DB_ERROR", "Failed to update post", http.StatusInternalServerError)
	}

	post, err = s.findPost(ctx, id)
	if err != nil {
		return PostView{}, err
	}
	return s.view(ctx, post)
}

// Delete removes the post and every reference to it: its comments and their
// likes, its own likes, and its id in any profile's posts array.
func (s *PostService) Delete(ctx context.Context, postID string, actor authz.Identity) (PostView, error) {
	id, err := parseID(postID)
	if err != nil {
		return PostView{}, err
	}

	post, err := s.findPost(ctx, id)
	if err != nil {
		return PostView{}, err
	}
	if !authz.CanMutate(actor, post.Author.Hex()) {
		return PostView{}, errors.NewAPIError("FORBIDDEN", "You are trying to delete another users post", http.StatusForbidden)
	}

	if err := s.deleteCascade(ctx, post); err != nil {
		return PostView{}, err
	}
	return s.view(ctx, post)
}

// deleteCascade removes the post document and purges every back-reference.
// Shared with the user-deletion cascade.
func (s *PostService) deleteCascade(ctx context.Context, post models.Post) error {
	// Comments under the post, and their likes.
	commentIDs := []primitive.ObjectID{}
	cursor, err := s.comments.Find(ctx, bson.M{"post": post.ID})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to load comments for delete", http.StatusInternalServerError)
	}
	var postComments []models.Comment
	if err := cursor.All(ctx, &postComments); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to decode comments for delete", http.StatusInternalServerError)
	}
	for _, comment := range postComments {
		commentIDs = append(commentIDs, comment.ID)
	}
	if len(commentIDs) > 0 {
		if _, err := s.commentLikes.DeleteMany(ctx, bson.M{"comment": bson.M{"$in": commentIDs}}); err != nil {
			return errors.Wrap(err, "DB_ERROR", "Failed to delete comment likes", http.StatusInternalServerError)
		}
		if _, err := s.comments.DeleteMany(ctx, bson.M{"post": post.ID}); err != nil {
			return errors.Wrap(err, "DB_ERROR", "Failed to delete comments", http.StatusInternalServerError)
		}
	}

	if _, err := s.postLikes.DeleteMany(ctx, bson.M{"post": post.ID}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete post likes", http.StatusInternalServerError)
	}

	// Only the author's profile should reference the post, but purge all.
	if _, err := s.profiles.UpdateMany(ctx, bson.M{"posts": post.ID}, bson.M{"$pull": bson.M{"posts": post.ID}}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to detach post from profiles", http.StatusInternalServerError)
	}

	if _, err := s.posts.DeleteOne(ctx, bson.M{"_id": post.ID}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete post", http.StatusInternalServerError)
	}
	return nil
}
