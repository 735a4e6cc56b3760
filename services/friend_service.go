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

// FriendService runs the friend-request lifecycle. A request is deleted on
// either response; accepting one adds each user to the other's friends set
// with $addToSet so the symmetry invariant holds even under replays.
type FriendService struct {
	requests *mongo.Collection
	users    *mongo.Collection
}

func NewFriendService(db *mongo.Database) *FriendService {
	requests := db.Collection("friend_requests")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "from_user", Value: 1}, {Key: "to_user", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := requests.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		log.Printf("Failed to create unique index on friend_requests: %v", err)
	}

	return &FriendService{requests: requests, users: db.Collection("users")}
}

func (s *FriendService) findRequest(ctx context.Context, id primitive.ObjectID) (models.FriendRequest, error) {
	var request models.FriendRequest
	err := s.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err == mongo.ErrNoDocuments {
		return models.FriendRequest{}, errors.NewAPIError("NOT_FOUND", "Friend request not found", http.StatusNotFound)
	}
	if err != nil {
		return models.FriendRequest{}, errors.Wrap(err, "DB_ERROR", "Failed to load friend request", http.StatusInternalServerError)
	}
	return request, nil
}

func (s *FriendService) view(ctx context.Context, request models.FriendRequest) (models.FriendRequestView, error) {
	summaries, err := userSummaries(ctx, s.users, []primitive.ObjectID{request.FromUser, request.ToUser})
	if err != nil {
		return models.FriendRequestView{}, err
	}
	return models.FriendRequestView{
		ID:         request.ID,
		FromUser:   summaries[request.FromUser],
		ToUser:     summaries[request.ToUser],
		CreatedAt:  request.CreatedAt,
		IsAccepted: request.IsAccepted,
	}, nil
}

// Send creates a pending request from the actor to another user. Self
// requests, requests between existing friends and duplicate requests are
// all conflicts; the unique (from_user, to_user) index backstops the
// duplicate check under concurrency.
func (s *FriendService) Send(ctx context.Context, actor authz.Identity, toUserID string) (models.FriendRequestView, error) {
	fromID, err := parseID(actor.UserID)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	toID, err := parseID(toUserID)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	if fromID == toID {
		return models.FriendRequestView{}, errors.NewAPIError("CONFLICT", "You are trying to send a friend request to yourself", http.StatusConflict)
	}

	var toUser models.User
	err = s.users.FindOne(ctx, bson.M{"_id": toID}).Decode(&toUser)
	if err == mongo.ErrNoDocuments {
		return models.FriendRequestView{}, errors.NewAPIError("NOT_FOUND", "User not found", http.StatusNotFound)
	}
	if err != nil {
		return models.FriendRequestView{}, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	for _, friendID := range toUser.Friends {
		if friendID == fromID {
			return models.FriendRequestView{}, errors.NewAPIError("CONFLICT", "Users are already friends", http.StatusConflict)
		}
	}

	err = s.requests.FindOne(ctx, bson.M{"from_user": fromID, "to_user": toID}).Err()
	if err == nil {
		return models.FriendRequestView{}, errors.NewAPIError("CONFLICT", "There is already a friend request", http.StatusConflict)
	}
	if err != mongo.ErrNoDocuments {
		return models.FriendRequestView{}, errors.Wrap(err, "DB_ERROR", "Failed to check for existing request", http.StatusInternalServerError)
	}

	request := models.FriendRequest{FromUser: fromID, ToUser: toID, CreatedAt: time.Now()}
	result, err := s.requests.InsertOne(ctx, request)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.FriendRequestView{}, errors.NewAPIError("CONFLICT", "There is already a friend request", http.StatusConflict)
		}
		return models.FriendRequestView{}, errors.Wrap(err, "DB_ERROR", "Failed to create friend request", http.StatusInternalServerError)
	}
	request.ID = result.InsertedID.(primitive.ObjectID)

	return s.view(ctx, request)
}

// Get returns the request with populated user summaries. Only the two
// involved parties may read it.
func (s *FriendService) Get(ctx context.Context, requestID string, viewer authz.Identity) (models.FriendRequestView, error) {
	id, err := parseID(requestID)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	request, err := s.findRequest(ctx, id)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	if !authz.CanMutate(viewer, request.FromUser.Hex()) && !authz.CanMutate(viewer, request.ToUser.Hex()) {
		return models.FriendRequestView{}, errors.NewAPIError("FORBIDDEN", "You are not a party of this friend request", http.StatusForbidden)
	}
	return s.view(ctx, request)
}

// Respond accepts or rejects the request. Only the recipient may respond.
// The request document is deleted either way; FindOneAndDelete makes sure
// exactly one concurrent responder wins. The returned view carries the
// outcome in is_accepted.
func (s *FriendService) Respond(ctx context.Context, requestID string, responder authz.Identity, accept bool) (models.FriendRequestView, error) {
	id, err := parseID(requestID)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	request, err := s.findRequest(ctx, id)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	if responder.UserID != request.ToUser.Hex() {
		return models.FriendRequestView{}, errors.NewAPIError("FORBIDDEN", "You are not the target of this friend request", http.StatusForbidden)
	}

	err = s.requests.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&request)
	if err == mongo.ErrNoDocuments {
		// Another response raced this one and won.
		return models.FriendRequestView{}, errors.NewAPIError("NOT_FOUND", "Friend request not found", http.StatusNotFound)
	}
	if err != nil {
		return models.FriendRequestView{}, errors.Wrap(err, "DB_ERROR", "Failed to delete friend request", http.StatusInternalServerError)
	}

	if accept {
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": request.ToUser}, bson.M{"$addToSet": bson.M{"friends": request.FromUser}}); err != nil {
			return models.FriendRequestView{}, errors.Wrap(err, "DB_ERROR", "Failed to update friends", http.StatusInternalServerError)
		}
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": request.FromUser}, bson.M{"$addToSet": bson.M{"friends": request.ToUser}}); err != nil {
			// Undo the first side so the symmetry invariant holds.
			if _, pullErr := s.users.UpdateOne(ctx, bson.M{"_id": request.ToUser}, bson.M{"$pull": bson.M{"friends": request.FromUser}}); pullErr != nil {
				log.Printf("Failed to roll back one-sided friendship %s<->%s: %v", request.FromUser.Hex(), request.ToUser.Hex(), pullErr)
			}
			return models.FriendRequestView{}, errors.Wrap(err, "DB_ERROR", "Failed to update friends", http.StatusInternalServerError)
		}
		request.IsAccepted = true
	}

	return s.view(ctx, request)
}

// Delete withdraws a pending request. Only the sender may do so.
func (s *FriendService) Delete(ctx context.Context, requestID string, requester authz.Identity) (models.FriendRequestView, error) {
	id, err := parseID(requestID)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	request, err := s.findRequest(ctx, id)
	if err != nil {
		return models.FriendRequestView{}, err
	}
	if requester.UserID != request.FromUser.Hex() {
		return models.FriendRequestView{}, errors.NewAPIError("FORBIDDEN", "You are not the owner of this friend request", http.StatusForbidden)
	}

	if _, err := s.requests.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return models.FriendRequestView{}, errors.Wrap(err, "DB_ERROR", "Failed to delete friend request", http.StatusInternalServerError)
	}
	return s.view(ctx, request)
}
