package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"social-server/utils/authz"
)

func TestCreatePostValidation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty content is rejected", func(mt *mtest.T) {
		svc := NewPostService(mt.DB)

		_, err := svc.Create(context.Background(), authz.Identity{UserID: primitive.NewObjectID().Hex()}, "   ", "")
		if code := apiCode(mt.T, err); code != "VALIDATION_FAILED" {
			mt.Errorf("code = %q, want VALIDATION_FAILED", code)
		}
	})
}

func TestUpdatePostAuthorization(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	authorID := primitive.NewObjectID()
	postID := primitive.NewObjectID()
	postDoc := bson.D{
		{Key: "_id", Value: postID},
		{Key: "author", Value: authorID},
		{Key: "content", Value: "original"},
		{Key: "comments", Value: bson.A{}},
		{Key: "likes", Value: bson.A{}},
	}

	mt.Run("a stranger may not update the post", func(mt *mtest.T) {
		svc := NewPostService(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "social_db.posts", mtest.FirstBatch, postDoc))

		_, err := svc.Update(context.Background(), postID.Hex(), authz.Identity{UserID: primitive.NewObjectID().Hex()}, "edited", "")
		if code := apiCode(mt.T, err); code != "FORBIDDEN" {
			mt.Errorf("code = %q, want FORBIDDEN", code)
		}
	})

	mt.Run("an admin may update any post", func(mt *mtest.T) {
		svc := NewPostService(mt.DB)
		authorSummary := bson.D{{Key: "_id", Value: authorID}, {Key: "first_name", Value: "John"}, {Key: "last_name", Value: "Smith"}}
		updatedDoc := bson.D{
			{Key: "_id", Value: postID},
			{Key: "author", Value: authorID},
			{Key: "content", Value: "edited"},
			{Key: "comments", Value: bson.A{}},
			{Key: "likes", Value: bson.A{}},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch, postDoc),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch, updatedDoc),
			mtest.CreateCursorResponse(1, "social_db.users", mtest.FirstBatch, authorSummary),
		)

		view, err := svc.Update(context.Background(), postID.Hex(), authz.Identity{UserID: primitive.NewObjectID().Hex(), IsAdmin: true}, "edited", "")
		if err != nil {
			mt.Fatalf("Update failed for admin: %v", err)
		}
		if view.Content != "edited" {
			mt.Errorf("content = %q, want %q", view.Content, "edited")
		}
		if view.Author.FirstName != "John" {
			mt.Errorf("author summary not populated: %+v", view.Author)
		}
	})

	mt.Run("missing post is not found before ownership", func(mt *mtest.T) {
		svc := NewPostService(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch))

		_, err := svc.Update(context.Background(), postID.Hex(), authz.Identity{UserID: primitive.NewObjectID().Hex()}, "edited", "")
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
	})
}

func TestDeletePostAuthorization(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	authorID := primitive.NewObjectID()
	postID := primitive.NewObjectID()
	postDoc := bson.D{
		{Key: "_id", Value: postID},
		{Key: "author", Value: authorID},
		{Key: "content", Value: "original"},
		{Key: "comments", Value: bson.A{}},
		{Key: "likes", Value: bson.A{}},
	}

	mt.Run("a stranger may not delete the post", func(mt *mtest.T) {
		svc := NewPostService(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "social_db.posts", mtest.FirstBatch, postDoc))

		_, err := svc.Delete(context.Background(), postID.Hex(), authz.Identity{UserID: primitive.NewObjectID().Hex()})
		if code := apiCode(mt.T, err); code != "FORBIDDEN" {
			mt.Errorf("code = %q, want FORBIDDEN", code)
		}
	})

	mt.Run("missing post is not found", func(mt *mtest.T) {
		svc := NewPostService(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch))

		_, err := svc.Delete(context.Background(), postID.Hex(), authz.Identity{UserID: authorID.Hex()})
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
	})
}

func TestDeletePostCascade(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("purges comments, likes and profile references", func(mt *mtest.T) {
		svc := NewPostService(mt.DB)
		authorID := primitive.NewObjectID()
		postID := primitive.NewObjectID()
		commentID := primitive.NewObjectID()
		postDoc := bson.D{
			{Key: "_id", Value: postID},
			{Key: "author", Value: authorID},
			{Key: "content", Value: "doomed"},
			{Key: "comments", Value: bson.A{commentID}},
			{Key: "likes", Value: bson.A{}},
		}
		commentDoc := bson.D{
			{Key: "_id", Value: commentID},
			{Key: "author", Value: primitive.NewObjectID()},
			{Key: "post", Value: postID},
			{Key: "content", Value: "hi"},
			{Key: "likes", Value: bson.A{}},
		}
		authorSummary := bson.D{{Key: "_id", Value: authorID}, {Key: "first_name", Value: "John"}, {Key: "last_name", Value: "Smith"}}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch, postDoc),
			mtest.CreateCursorResponse(1, "social_db.comments", mtest.FirstBatch, commentDoc),
			mtest.CreateCursorResponse(0, "social_db.comments", mtest.NextBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateCursorResponse(1, "social_db.users", mtest.FirstBatch, authorSummary),
		)

		view, err := svc.Delete(context.Background(), postID.Hex(), authz.Identity{UserID: authorID.Hex()})
		if err != nil {
			mt.Fatalf("Delete failed: %v", err)
		}
		if view.ID != postID {
			mt.Errorf("deleted post id = %s, want %s", view.ID.Hex(), postID.Hex())
		}

		deletes := map[string]int{}
		pulledProfiles := false
		for _, evt := range mt.GetAllStartedEvents() {
			switch evt.CommandName {
			case "delete":
				deletes[evt.Command.Lookup("delete").StringValue()]++
			case "update":
				if evt.Command.Lookup("update").StringValue() == "profiles" {
					pulledProfiles = true
				}
			}
		}
		for _, coll := range []string{"comment_likes", "comments", "post_likes", "posts"} {
			if deletes[coll] == 0 {
				mt.Errorf("no delete issued on %s", coll)
			}
		}
		if !pulledProfiles {
			mt.Error("post id was not pulled from profiles")
		}
	})
}
