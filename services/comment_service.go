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

type CommentService struct {
	comments     *mongo.Collection
	posts        *mongo.Collection
	commentLikes *mongo.Collection
	users        *mongo.Collection
}

// CommentView is a comment with its author resolved to a summary.
type CommentView struct {
	models.Comment
	Author models.UserSummary `json:"author"`
}

func NewCommentService(db *mongo.Database) *CommentService {
	return &CommentService{
		comments:     db.Collection("comments"),
		posts:        db.Collection("posts"),
		commentLikes: db.Collection("comment_likes"),
		users:        db.Collection("users"),
	}
}

// findInPost resolves the comment and verifies it belongs to the routed
// post. A mismatch is NotFound, not Forbidden: the relationship is part of
// the resource identity.
func (s *CommentService) findInPost(ctx context.Context, commentID, postID primitive.ObjectID) (models.Comment, error) {
	var comment models.Comment
	err := s.comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return models.Comment{}, errors.NewAPIError("NOT_FOUND", "Comment not found", http.StatusNotFound)
	}
	if err != nil {
		return models.Comment{}, errors.Wrap(err, "DB_ERROR", "Failed to load comment", http.StatusInternalServerError)
	}
	if comment.Post != postID {
		return models.Comment{}, errors.NewAPIError("NOT_FOUND", "Comment does not belong to this post", http.StatusNotFound)
	}
	return comment, nil
}

func (s *CommentService) view(ctx context.Context, comment models.Comment) (CommentView, error) {
	author, err := userSummary(ctx, s.users, comment.Author)
	if err != nil {
		author = models.UserSummary{ID: comment.Author}
	}
	return CommentView{Comment: comment, Author: author}, nil
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if len(content) < 1 || len(content) > 1000 {
		return "", errors.NewAPIError("VALIDATION_FAILED", "Comment body should be between 1 and 1000", http.StatusBadRequest)
	}
	return content, nil
}

// List returns the comments of a post with author summaries.
func (s *CommentService) List(ctx context.Context, postID string) ([]CommentView, error) {
	id, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Err(); err == mongo.ErrNoDocuments {
		return nil, errors.NewAPIError("NOT_FOUND", "Post not found", http.StatusNotFound)
	} else if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load post", http.StatusInternalServerError)
	}

	cursor, err := s.comments.Find(ctx, bson.M{"post": id})
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load comments", http.StatusInternalServerError)
	}
	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode comments", http.StatusInternalServerError)
	}

	authorIDs := make([]primitive.ObjectID, 0, len(comments))
	for _, comment := range comments {
		authorIDs = append(authorIDs, comment.Author)
	}
	authors, err := userSummaries(ctx, s.users, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, CommentView{Comment: comment, Author: authors[comment.Author]})
	}
	return views, nil
}

// Create persists the comment and appends it to the post's comments array,
// rolling the comment back if the append fails.
func (s *CommentService) Create(ctx context.Context, actor authz.Identity, postID, content string) (CommentView, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return CommentView{}, err
	}
	pid, err := parseID(postID)
	if err != nil {
		return CommentView{}, err
	}
	authorID, err := parseID(actor.UserID)
	if err != nil {
		return CommentView{}, err
	}

	if err := s.posts.FindOne(ctx, bson.M{"_id": pid}).Err(); err == mongo.ErrNoDocuments {
		return CommentView{}, errors.NewAPIError("NOT_FOUND", "Post not found", http.StatusNotFound)
	} else if err != nil {
		return CommentView{}, errors.Wrap(err, "DB_ERROR", "Failed to load post", http.StatusInternalServerError)
	}

	now := time.Now()
	comment := models.Comment{
		Author:    authorID,
		Post:      pid,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Likes:     []primitive.ObjectID{},
	}
	result, err := s.comments.InsertOne(ctx, comment)
	if err != nil {
		return CommentView{}, errors.Wrap(err, "DB_ERROR", "Failed to create comment", http.StatusInternalServerError)
	}
	comment.ID = result.InsertedID.(primitive.ObjectID)

	if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": pid}, bson.M{"$push": bson.M{"comments": comment.ID}}); err != nil {
		if _, delErr := s.comments.DeleteOne(ctx, bson.M{"_id": comment.ID}); delErr != nil {
			log.Printf("Failed to roll back comment %s after post append failure: %v", comment.ID.Hex(), delErr)
		}
		return CommentView{}, errors.Wrap(err, "DB_ERROR", "Failed to attach comment to post", http.StatusInternalServerError)
	}

	return s.view(ctx, comment)
}

// Update rewrites the comment content after the ownership check.
func (s *CommentService) Update(ctx context.Context, postID, commentID string, actor authz.Identity, content string) (CommentView, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return CommentView{}, err
	}
	pid, err := parseID(postID)
	if err != nil {
		return CommentView{}, err
	}
	cid, err := parseID(commentID)
	if err != nil {
		return CommentView{}, err
	}

	comment, err := s.findInPost(ctx, cid, pid)
	if err != nil {
		return CommentView{}, err
	}
	if !authz.CanMutate(actor, comment.Author.Hex()) {
		return CommentView{}, errors.NewAPIError("FORBIDDEN", "You are not the owner of this comment", http.StatusForbidden)
	}

	now := time.Now()
	if _, err := s.comments.UpdateOne(ctx, bson.M{"_id": cid}, bson.M{"$set": bson.M{"content": content, "updated_at": now}}); err != nil {
		return CommentView{}, errors.Wrap(err, "DB_ERROR", "Failed to update comment", http.StatusInternalServerError)
	}
	comment.Content = content
	comment.UpdatedAt = now

	return s.view(ctx, comment)
}

// Delete removes the comment and purges every reference: its likes (pulled
// from its own likes array before the documents go), and its id in any
// post's comments array.
func (s *CommentService) Delete(ctx context.Context, postID, commentID string, actor authz.Identity) (CommentView, error) {
	pid, err := parseID(postID)
	if err != nil {
		return CommentView{}, err
	}
	cid, err := parseID(commentID)
	if err != nil {
		return CommentView{}, err
	}

	comment, err := s.findInPost(ctx, cid, pid)
	if err != nil {
		return CommentView{}, err
	}
	if !authz.CanMutate(actor, comment.Author.Hex()) {
		return CommentView{}, errors.NewAPIError("FORBIDDEN", "You are trying to delete another users comment", http.StatusForbidden)
	}

	if err := s.deleteCascade(ctx, comment); err != nil {
		return CommentView{}, err
	}
	return s.view(ctx, comment)
}

// deleteCascade removes the comment document and purges every
// back-reference. Shared with the user-deletion cascade.
func (s *CommentService) deleteCascade(ctx context.Context, comment models.Comment) error {
	if len(comment.Likes) > 0 {
		if _, err := s.comments.UpdateOne(ctx, bson.M{"_id": comment.ID}, bson.M{"$set": bson.M{"likes": []primitive.ObjectID{}, "like_count": 0}}); err != nil {
			return errors.Wrap(err, "DB_ERROR", "Failed to purge comment likes array", http.StatusInternalServerError)
		}
	}
	if _, err := s.commentLikes.DeleteMany(ctx, bson.M{"comment": comment.ID}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete comment likes", http.StatusInternalServerError)
	}

	// Only the parent post should reference the comment, but purge all.
	if _, err := s.posts.UpdateMany(ctx, bson.M{"comments": comment.ID}, bson.M{"$pull": bson.M{"comments": comment.ID}}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to detach comment from posts", http.StatusInternalServerError)
	}

	if _, err := s.comments.DeleteOne(ctx, bson.M{"_id": comment.ID}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete comment", http.StatusInternalServerError)
	}
	return nil
}
