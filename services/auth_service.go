package services

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"social-server/models"
	"social-server/utils/errors"
)

// TokenTTL is the lifetime of an issued session token.
const TokenTTL = time.Hour

var (
	errIncorrectUsername = errors.NewAPIError("INCORRECT_USERNAME", "Incorrect username", http.StatusUnauthorized)
	errIncorrectPassword = errors.NewAPIError("INCORRECT_PASSWORD", "Incorrect password", http.StatusUnauthorized)
)

type AuthService struct {
	users     *mongo.Collection
	profiles  *mongo.Collection
	blacklist *Blacklist
	jwtSecret string
}

func NewAuthService(db *mongo.Database, blacklist *Blacklist, jwtSecret string) *AuthService {
	users := db.Collection("users")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := users.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		log.Printf("Failed to create unique index on users: %v", err)
	}

	return &AuthService{
		users:     users,
		profiles:  db.Collection("profiles"),
		blacklist: blacklist,
		jwtSecret: jwtSecret,
	}
}

// Signup creates a user together with its profile. The two inserts have no
// transaction around them, so a failed profile insert rolls the user back.
func (s *AuthService) Signup(ctx context.Context, firstName, lastName, username, password string) (models.User, models.Profile, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	username = strings.TrimSpace(username)

	switch {
	case firstName == "":
		return models.User{}, models.Profile{}, errors.NewAPIError("VALIDATION_FAILED", "firstname can't be empty", http.StatusBadRequest)
	case lastName == "":
		return models.User{}, models.Profile{}, errors.NewAPIError("VALIDATION_FAILED", "lastname can't be empty", http.StatusBadRequest)
	case len(username) < 5:
		return models.User{}, models.Profile{}, errors.NewAPIError("VALIDATION_FAILED", "username must be minimum 5 characters", http.StatusBadRequest)
	case len(password) < 8:
		return models.User{}, models.Profile{}, errors.NewAPIError("VALIDATION_FAILED", "password must be minimum 8 characters", http.StatusBadRequest)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, models.Profile{}, errors.Wrap(err, "HASH_ERROR", "Failed to hash password", http.StatusInternalServerError)
	}

	user := models.User{
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
		Password:  string(passwordHash),
		Friends:   []primitive.ObjectID{},
	}
	userResult, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, models.Profile{}, errors.NewAPIError("CONFLICT", "Username already exists", http.StatusConflict)
		}
		return models.User{}, models.Profile{}, errors.Wrap(err, "DB_ERROR", "Failed to create user", http.StatusInternalServerError)
	}
	user.ID = userResult.InsertedID.(primitive.ObjectID)

	profile := models.Profile{
		User:           user.ID,
		ProfilePicture: models.DefaultProfilePicture,
		About:          "About Me",
		Posts:          []primitive.ObjectID{},
	}
	profileResult, err := s.profiles.InsertOne(ctx, profile)
	if err != nil {
		// Roll the user back so signup never half-applies.
		if _, delErr := s.users.DeleteOne(ctx, bson.M{"_id": user.ID}); delErr != nil {
			log.Printf("Failed to roll back user %s after profile insert failure: %v", user.ID.Hex(), delErr)
		}
		return models.User{}, models.Profile{}, errors.Wrap(err, "DB_ERROR", "Failed to create profile", http.StatusInternalServerError)
	}
	profile.ID = profileResult.InsertedID.(primitive.ObjectID)

	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"profile": profile.ID}}); err != nil {
		// A failed link leaves both documents half-applied; remove them.
		if _, delErr := s.profiles.DeleteOne(ctx, bson.M{"_id": profile.ID}); delErr != nil {
			log.Printf("Failed to roll back profile %s after link failure: %v", profile.ID.Hex(), delErr)
		}
		if _, delErr := s.users.DeleteOne(ctx, bson.M{"_id": user.ID}); delErr != nil {
			log.Printf("Failed to roll back user %s after link failure: %v", user.ID.Hex(), delErr)
		}
		return models.User{}, models.Profile{}, errors.Wrap(err, "DB_ERROR", "Failed to link profile", http.StatusInternalServerError)
	}
	user.Profile = profile.ID
	user.Password = ""

	return user, profile, nil
}

// Login verifies the credentials and issues a signed session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (models.User, string, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, "", errIncorrectUsername
	}
	if err != nil {
		return models.User{}, "", errors.Wrap(err, "DB_ERROR", "Failed to look up user", http.StatusInternalServerError)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, "", errIncorrectPassword
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID":  user.ID.Hex(),
		"isAdmin": user.IsAdmin,
		"jti":     uuid.New().String(),
		"exp":     time.Now().Add(TokenTTL).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return models.User{}, "", errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}

	user.Password = ""
	return user, tokenString, nil
}

// Logout revokes the token for the remainder of its lifetime. The token has
// already been verified by the auth middleware, so the unverified parse here
// only recovers the expiry for the blacklist TTL.
func (s *AuthService) Logout(ctx context.Context, tokenString string) (models.BlacklistedToken, error) {
	expiresAt := time.Now().Add(TokenTTL)

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err == nil {
		if exp, expErr := token.Claims.GetExpirationTime(); expErr == nil && exp != nil {
			expiresAt = exp.Time
		}
	}

	return s.blacklist.Revoke(ctx, tokenString, expiresAt)
}
