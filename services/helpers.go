package services

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-server/models"
	"social-server/utils/errors"
)

var summaryProjection = bson.M{"first_name": 1, "last_name": 1}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, errors.NewAPIError("VALIDATION_FAILED", "Invalid id", http.StatusBadRequest, hex)
	}
	return id, nil
}

// userSummary resolves a single user to its embedded summary projection.
func userSummary(ctx context.Context, users *mongo.Collection, id primitive.ObjectID) (models.UserSummary, error) {
	var summary models.UserSummary
	err := users.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(summaryProjection)).Decode(&summary)
	if err == mongo.ErrNoDocuments {
		return models.UserSummary{}, errors.NewAPIError("NOT_FOUND", "User not found", http.StatusNotFound)
	}
	if err != nil {
		return models.UserSummary{}, errors.Wrap(err, "DB_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	return summary, nil
}

// userSummaries batch-resolves users to summaries, keyed by id.
func userSummaries(ctx context.Context, users *mongo.Collection, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	summaries := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	cursor, err := users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load users", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var summary models.UserSummary
		if err := cursor.Decode(&summary); err != nil {
			return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode user", http.StatusInternalServerError)
		}
		summaries[summary.ID] = summary
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load users", http.StatusInternalServerError)
	}
	return summaries, nil
}
