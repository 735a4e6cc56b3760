package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"social-server/models"
	"social-server/utils/errors"
)

// Blacklist is the token revocation list. Mongo is the authoritative store
// and carries a TTL index so entries vanish once the token would have
// expired anyway; Redis is a fast path in front of it with the same TTL.
type Blacklist struct {
	collection  *mongo.Collection
	redisClient *redis.Client
}

func NewBlacklist(db *mongo.Database, redisClient *redis.Client) *Blacklist {
	collection := db.Collection("blacklisted_tokens")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := collection.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		log.Printf("Failed to create TTL index on blacklisted_tokens: %v", err)
	}

	return &Blacklist{collection: collection, redisClient: redisClient}
}

// Revoke inserts the token into the blacklist. Revoking an already revoked
// token is not an error; the caller just gets a fresh entry.
func (b *Blacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) (models.BlacklistedToken, error) {
	entry := models.BlacklistedToken{Token: token, ExpiresAt: expiresAt}

	result, err := b.collection.InsertOne(ctx, entry)
	if err != nil {
		return models.BlacklistedToken{}, errors.Wrap(err, "DB_ERROR", "Failed to blacklist token", http.StatusInternalServerError)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := b.redisClient.Set(ctx, "revoked:"+token, "1", ttl).Err(); err != nil {
		// Mongo stays authoritative, the cache miss only costs a lookup.
		log.Printf("Failed to cache revoked token in Redis: %v", err)
	}

	return entry, nil
}

// Contains reports whether the token has been revoked.
func (b *Blacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.redisClient.Exists(ctx, "revoked:"+token).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	if err != nil {
		log.Printf("Redis blacklist lookup failed, falling back to Mongo: %v", err)
	}

	err = b.collection.FindOne(ctx, bson.M{"token": token}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
