package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-server/models"
	"social-server/utils/authz"
	"social-server/utils/errors"
)

// LikeService maintains like documents and the denormalized likes arrays
// and like_count fields on their targets. The array push and the counter
// increment always travel in the same single-document update, and the
// unique (user, target) index arbitrates duplicates.
type LikeService struct {
	postLikes    *mongo.Collection
	commentLikes *mongo.Collection
	posts        *mongo.Collection
	comments     *mongo.Collection
}

func NewLikeService(db *mongo.Database) *LikeService {
	postLikes := db.Collection("post_likes")
	commentLikes := db.Collection("comment_likes")

	postIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "post", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := postLikes.Indexes().CreateOne(context.Background(), postIndex); err != nil {
		log.Printf("Failed to create unique index on post_likes: %v", err)
	}
	commentIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "comment", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := commentLikes.Indexes().CreateOne(context.Background(), commentIndex); err != nil {
		log.Printf("Failed to create unique index on comment_likes: %v", err)
	}

	return &LikeService{
		postLikes:    postLikes,
		commentLikes: commentLikes,
		posts:        db.Collection("posts"),
		comments:     db.Collection("comments"),
	}
}

// LikePost creates a like for the post. A second like by the same user is
// rejected by the unique index and surfaces as Conflict with the counter
// untouched.
func (s *LikeService) LikePost(ctx context.Context, actor authz.Identity, postID string) (models.PostLike, error) {
	pid, err := parseID(postID)
	if err != nil {
		return models.PostLike{}, err
	}
	userID, err := parseID(actor.UserID)
	if err != nil {
		return models.PostLike{}, err
	}

	if err := s.posts.FindOne(ctx, bson.M{"_id": pid}).Err(); err == mongo.ErrNoDocuments {
		return models.PostLike{}, errors.NewAPIError("NOT_FOUND", "Post not found", http.StatusNotFound)
	} else if err != nil {
		return models.PostLike{}, errors.Wrap(err, "DB_ERROR", "Failed to load post", http.StatusInternalServerError)
	}

	like := models.PostLike{User: userID, Post: pid, LikedAt: time.Now()}
	result, err := s.postLikes.InsertOne(ctx, like)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.PostLike{}, errors.NewAPIError("CONFLICT", "You already liked this post", http.StatusConflict)
		}
		return models.PostLike{}, errors.Wrap(err, "DB_ERROR", "Failed to create like", http.StatusInternalServerError)
	}
	like.ID = result.InsertedID.(primitive.ObjectID)

	update := bson.M{
		"$addToSet": bson.M{"likes": like.ID},
		"$inc":      bson.M{"like_count": 1},
	}
	updateResult, err := s.posts.UpdateOne(ctx, bson.M{"_id": pid}, update)
	if err != nil || updateResult.MatchedCount == 0 {
		// The post may have vanished since the existence check; an orphan
		// like must not survive it.
		if _, delErr := s.postLikes.DeleteOne(ctx, bson.M{"_id": like.ID}); delErr != nil {
			log.Printf("Failed to roll back like %s after counter update failure: %v", like.ID.Hex(), delErr)
		}
		if err != nil {
			return models.PostLike{}, errors.Wrap(err, "DB_ERROR", "Failed to update post likes", http.StatusInternalServerError)
		}
		return models.PostLike{}, errors.NewAPIError("NOT_FOUND", "Post not found", http.StatusNotFound)
	}

	return like, nil
}

// UnlikePost removes the actor's like from the post. The lookup is scoped
// to the actor, so only their own like can be removed. The filter on the
// likes array keeps the pull and the decrement from applying twice under
// concurrent unlikes.
func (s *LikeService) UnlikePost(ctx context.Context, actor authz.Identity, postID string) (models.PostLike, error) {
	pid, err := parseID(postID)
	if err != nil {
		return models.PostLike{}, err
	}
	userID, err := parseID(actor.UserID)
	if err != nil {
		return models.PostLike{}, err
	}

	var like models.PostLike
	err = s.postLikes.FindOne(ctx, bson.M{"post": pid, "user": userID}).Decode(&like)
	if err == mongo.ErrNoDocuments {
		return models.PostLike{}, errors.NewAPIError("NOT_FOUND", "Like not found", http.StatusNotFound)
	}
	if err != nil {
		return models.PostLike{}, errors.Wrap(err, "DB_ERROR", "Failed to load like", http.StatusInternalServerError)
	}
	if _, err := s.postLikes.DeleteOne(ctx, bson.M{"_id": like.ID}); err != nil {
		return models.PostLike{}, errors.Wrap(err, "DB_ERROR", "Failed to delete like", http.StatusInternalServerError)
	}

	update := bson.M{
		"$pull": bson.M{"likes": like.ID},
		"$inc":  bson.M{"like_count": -1},
	}
	if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": pid, "likes": like.ID}, update); err != nil {
		return models.PostLike{}, errors.Wrap(err, "DB_ERROR", "Failed to update post likes", http.StatusInternalServerError)
	}
	// Defensive purge of the like id from any other post referencing it.
	if _, err := s.posts.UpdateMany(ctx, bson.M{"likes": like.ID}, bson.M{"$pull": bson.M{"likes": like.ID}}); err != nil {
		log.Printf("Failed defensive like purge for %s: %v", like.ID.Hex(), err)
	}

	return like, nil
}

// LikeComment mirrors LikePost for comments.
func (s *LikeService) LikeComment(ctx context.Context, actor authz.Identity, postID, commentID string) (models.CommentLike, error) {
	pid, err := parseID(postID)
	if err != nil {
		return models.CommentLike{}, err
	}
	cid, err := parseID(commentID)
	if err != nil {
		return models.CommentLike{}, err
	}
	userID, err := parseID(actor.UserID)
	if err != nil {
		return models.CommentLike{}, err
	}

	var comment models.Comment
	err = s.comments.FindOne(ctx, bson.M{"_id": cid}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return models.CommentLike{}, errors.NewAPIError("NOT_FOUND", "Comment not found", http.StatusNotFound)
	}
	if err != nil {
		return models.CommentLike{}, errors.Wrap(err, "DB_ERROR", "Failed to load comment", http.StatusInternalServerError)
	}
	if comment.Post != pid {
		return models.CommentLike{}, errors.NewAPIError("NOT_FOUND", "Comment does not belong to this post", http.StatusNotFound)
	}

	like := models.CommentLike{User: userID, Comment: cid, LikedAt: time.Now()}
	result, err := s.commentLikes.InsertOne(ctx, like)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.CommentLike{}, errors.NewAPIError("CONFLICT", "You already liked this comment", http.StatusConflict)
		}
		return models.CommentLike{}, errors.Wrap(err, "DB_ERROR", "Failed to create like", http.StatusInternalServerError)
	}
	like.ID = result.InsertedID.(primitive.ObjectID)

	update := bson.M{
		"$addToSet": bson.M{"likes": like.ID},
		"$inc":      bson.M{"like_count": 1},
	}
	updateResult, err := s.comments.UpdateOne(ctx, bson.M{"_id": cid}, update)
	if err != nil || updateResult.MatchedCount == 0 {
		if _, delErr := s.commentLikes.DeleteOne(ctx, bson.M{"_id": like.ID}); delErr != nil {
			log.Printf("Failed to roll back like %s after counter update failure: %v", like.ID.Hex(), delErr)
		}
		if err != nil {
			return models.CommentLike{}, errors.Wrap(err, "DB_ERROR", "Failed to update comment likes", http.StatusInternalServerError)
		}
		return models.CommentLike{}, errors.NewAPIError("NOT_FOUND", "Comment not found", http.StatusNotFound)
	}

	return like, nil
}

// UnlikeComment mirrors UnlikePost for comments.
func (s *LikeService) UnlikeComment(ctx context.Context, actor authz.Identity, postID, commentID string) (models.CommentLike, error) {
	pid, err := parseID(postID)
	if err != nil {
		return models.CommentLike{}, err
	}
	cid, err := parseID(commentID)
	if err != nil {
		return models.CommentLike{}, err
	}
	userID, err := parseID(actor.UserID)
	if err != nil {
		return models.CommentLike{}, err
	}

	var comment models.Comment
	err = s.comments.FindOne(ctx, bson.M{"_id": cid}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return models.CommentLike{}, errors.NewAPIError("NOT_FOUND", "Comment not found", http.StatusNotFound)
	}
	if err != nil {
		return models.CommentLike{}, errors.Wrap(err, "DB_ERROR", "Failed to load comment", http.StatusInternalServerError)
	}
	if comment.Post != pid {
		return models.CommentLike{}, errors.NewAPIError("NOT_FOUND", "Comment does not belong to this post", http.StatusNotFound)
	}

	var like models.CommentLike
	err = s.commentLikes.FindOne(ctx, bson.M{"comment": cid, "user": userID}).Decode(&like)
	if err == mongo.ErrNoDocuments {
		return models.CommentLike{}, errors.NewAPIError("NOT_FOUND", "Like not found", http.StatusNotFound)
	}
	if err != nil {
		return models.CommentLike{}, errors.Wrap(err, "DB_ERROR", "Failed to load like", http.StatusInternalServerError)
	}
	if _, err := s.commentLikes.DeleteOne(ctx, bson.M{"_id": like.ID}); err != nil {
		return models.CommentLike{}, errors.Wrap(err, "DB_ERROR", "Failed to delete like", http.StatusInternalServerError)
	}

	update := bson.M{
		"$pull": bson.M{"likes": like.ID},
		"$inc":  bson.M{"like_count": -1},
	}
	if _, err := s.comments.UpdateOne(ctx, bson.M{"_id": cid, "likes": like.ID}, update); err != nil {
		return models.CommentLike{}, errors.Wrap(err, "DB_ERROR", "Failed to update comment likes", http.StatusInternalServerError)
	}
	if _, err := s.comments.UpdateMany(ctx, bson.M{"likes": like.ID}, bson.M{"$pull": bson.M{"likes": like.ID}}); err != nil {
		log.Printf("Failed defensive like purge for %s: %v", like.ID.Hex(), err)
	}

	return like, nil
}
