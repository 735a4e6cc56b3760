package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"social-server/utils/authz"
)

func newUserService(mt *mtest.T) *UserService {
	return NewUserService(mt.DB, NewPostService(mt.DB), NewCommentService(mt.DB))
}

func TestUpdateUserAuthorization(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	userID := primitive.NewObjectID()
	userDoc := bson.D{
		{Key: "_id", Value: userID},
		{Key: "first_name", Value: "John"},
		{Key: "last_name", Value: "Smith"},
		{Key: "username", Value: "johnsmith"},
		{Key: "friends", Value: bson.A{}},
	}

	mt.Run("a stranger may not update the user", func(mt *mtest.T) {
		svc := newUserService(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "social_db.users", mtest.FirstBatch, userDoc))

		_, err := svc.Update(context.Background(), userID.Hex(), authz.Identity{UserID: primitive.NewObjectID().Hex()}, UpdateUserInput{FirstName: "Jane"})
		if code := apiCode(mt.T, err); code != "FORBIDDEN" {
			mt.Errorf("code = %q, want FORBIDDEN", code)
		}
	})

	mt.Run("missing user is not found before ownership", func(mt *mtest.T) {
		svc := newUserService(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "social_db.users", mtest.FirstBatch))

		_, err := svc.Update(context.Background(), userID.Hex(), authz.Identity{UserID: primitive.NewObjectID().Hex()}, UpdateUserInput{FirstName: "Jane"})
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
	})
}

func TestDeleteUserAuthorization(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	userID := primitive.NewObjectID()
	userDoc := bson.D{
		{Key: "_id", Value: userID},
		{Key: "first_name", Value: "John"},
		{Key: "last_name", Value: "Smith"},
		{Key: "friends", Value: bson.A{}},
	}

	mt.Run("a stranger may not delete the user", func(mt *mtest.T) {
		svc := newUserService(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "social_db.users", mtest.FirstBatch, userDoc))

		_, err := svc.Delete(context.Background(), userID.Hex(), authz.Identity{UserID: primitive.NewObjectID().Hex()})
		if code := apiCode(mt.T, err); code != "FORBIDDEN" {
			mt.Errorf("code = %q, want FORBIDDEN", code)
		}
	})
}

func TestDeleteUserCascade(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("detaches likes, friendships, requests and the profile", func(mt *mtest.T) {
		svc := newUserService(mt)
		userID := primitive.NewObjectID()
		friendID := primitive.NewObjectID()
		postID := primitive.NewObjectID()
		userDoc := bson.D{
			{Key: "_id", Value: userID},
			{Key: "first_name", Value: "John"},
			{Key: "last_name", Value: "Smith"},
			{Key: "friends", Value: bson.A{friendID}},
		}
		likeDoc := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "user", Value: userID},
			{Key: "post", Value: postID},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "social_db.users", mtest.FirstBatch, userDoc),
			mtest.CreateCursorResponse(0, "social_db.posts", mtest.FirstBatch),
			mtest.CreateCursorResponse(0, "social_db.comments", mtest.FirstBatch),
			mtest.CreateCursorResponse(1, "social_db.post_likes", mtest.FirstBatch, likeDoc),
			mtest.CreateCursorResponse(0, "social_db.post_likes", mtest.NextBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateCursorResponse(0, "social_db.comment_likes", mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		user, err := svc.Delete(context.Background(), userID.Hex(), authz.Identity{UserID: userID.Hex()})
		if err != nil {
			mt.Fatalf("Delete failed: %v", err)
		}
		if user.ID != userID {
			mt.Errorf("deleted user id = %s, want %s", user.ID.Hex(), userID.Hex())
		}

		deletes := map[string]int{}
		updates := map[string]int{}
		for _, evt := range mt.GetAllStartedEvents() {
			switch evt.CommandName {
			case "delete":
				deletes[evt.Command.Lookup("delete").StringValue()]++
			case "update":
				updates[evt.Command.Lookup("update").StringValue()]++
			}
		}
		for _, coll := range []string{"post_likes", "comment_likes", "friend_requests", "profiles", "users"} {
			if deletes[coll] == 0 {
				mt.Errorf("no delete issued on %s", coll)
			}
		}
		if updates["posts"] == 0 {
			mt.Error("the given like was not detached from its post")
		}
		if updates["users"] == 0 {
			mt.Error("the user was not pulled from friends sets")
		}
	})
}

func TestGetProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing user is not found", func(mt *mtest.T) {
		svc := newUserService(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "social_db.users", mtest.FirstBatch))

		_, err := svc.GetProfile(context.Background(), primitive.NewObjectID().Hex())
		if code := apiCode(mt.T, err); code != "NOT_FOUND" {
			mt.Errorf("code = %q, want NOT_FOUND", code)
		}
	})

	mt.Run("returns profile with user summary", func(mt *mtest.T) {
		svc := newUserService(mt)
		userID := primitive.NewObjectID()
		profileID := primitive.NewObjectID()
		userDoc := bson.D{
			{Key: "_id", Value: userID},
			{Key: "first_name", Value: "John"},
			{Key: "last_name", Value: "Smith"},
			{Key: "friends", Value: bson.A{}},
		}
		profileDoc := bson.D{
			{Key: "_id", Value: profileID},
			{Key: "user", Value: userID},
			{Key: "about", Value: "About Me"},
			{Key: "posts", Value: bson.A{}},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "social_db.users", mtest.FirstBatch, userDoc),
			mtest.CreateCursorResponse(1, "social_db.profiles", mtest.FirstBatch, profileDoc),
		)

		profile, err := svc.GetProfile(context.Background(), userID.Hex())
		if err != nil {
			mt.Fatalf("GetProfile failed: %v", err)
		}
		if profile.User.FirstName != "John" || profile.About != "About Me" {
			mt.Errorf("profile = %+v", profile)
		}
	})
}
