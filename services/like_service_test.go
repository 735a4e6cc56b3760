package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"social-server/utils/authz"
)

func TestLikePost(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	postID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	actor := authz.Identity{UserID: userID.Hex()}
	postDoc := bson.D{
		{Key: "_id", Value: postID},
		{Key: "author", Value: primitive.NewObjectID()},
		{Key: "content", Value: "hello"},
		{Key: "likes", Value: bson.A{}},
		{Key: "like_count", Value: int64(0)},
	}

	mt.Run("creates the like and bumps the counter", func(mt *mtest.T) {
		svc := NewLikeService(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch, postDoc),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		like, err := svc.LikePost(context.Background(), actor, postID.Hex())
		if err != nil {
			mt.Fatalf("LikePost failed: %v", err)
		}
		if like.ID.IsZero() {
			mt.Error("like has no id")
		}
		if like.User != userID || like.Post != postID {
			mt.Errorf("like = %+v, want user %s post %s", like, userID.Hex(), postID.Hex())
		}
	})

	mt.Run("second like is a conflict", func(mt *mtest.T) {
		svc := NewLikeService(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch, postDoc),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}),
		)

		_, err := svc.LikePost(context.Background(), actor, postID.Hex())
		if code := apiCode(mt.T, err); code != "CONFLICT" {
			mt.Errorf("code = %q, want CONFLICT", code)
		}
	})

	mt.Run("missing post is not found", func(mt *mtest.T) {
		svc := NewLikeService(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch))

		_, err := svc.LikePost(context.Background(), actor, postID.Hex())
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
	})

	mt.Run("post deleted mid-flight rolls the like back", func(mt *mtest.T) {
		svc := NewLikeService(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch, postDoc),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		_, err := svc.LikePost(context.Background(), actor, postID.Hex())
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
		rolledBack := false
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "delete" && evt.Command.Lookup("delete").StringValue() == "post_likes" {
				rolledBack = true
			}
		}
		if !rolledBack {
			mt.Error("orphan like was not rolled back")
		}
	})
}

func TestUnlikePost(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	postID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	likeID := primitive.NewObjectID()
	actor := authz.Identity{UserID: userID.Hex()}

	mt.Run("no like means not found", func(mt *mtest.T) {
		svc := NewLikeService(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "social_db.post_likes", mtest.FirstBatch))

		_, err := svc.UnlikePost(context.Background(), actor, postID.Hex())
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
	})

	mt.Run("deletes the like and decrements", func(mt *mtest.T) {
		svc := NewLikeService(mt.DB)
		likeDoc := bson.D{
			{Key: "_id", Value: likeID},
			{Key: "user", Value: userID},
			{Key: "post", Value: postID},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, "social_db.post_likes", mtest.FirstBatch, likeDoc),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		like, err := svc.UnlikePost(context.Background(), actor, postID.Hex())
		if err != nil {
			mt.Fatalf("UnlikePost failed: %v", err)
		}
		if like.ID != likeID {
			mt.Errorf("deleted like id = %s, want %s", like.ID.Hex(), likeID.Hex())
		}
	})
}

func TestLikeCommentWrongPost(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("comment under another post is not found", func(mt *mtest.T) {
		svc := NewLikeService(mt.DB)
		commentID := primitive.NewObjectID()
		commentDoc := bson.D{
			{Key: "_id", Value: commentID},
			{Key: "author", Value: primitive.NewObjectID()},
			{Key: "post", Value: primitive.NewObjectID()},
			{Key: "content", Value: "hi"},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "social_db.comments", mtest.FirstBatch, commentDoc))

		actor := authz.Identity{UserID: primitive.NewObjectID().Hex()}
		_, err := svc.LikeComment(context.Background(), actor, primitive.NewObjectID().Hex(), commentID.Hex())
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
	})
}
