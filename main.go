package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"social-server/database"
	"social-server/handlers"
	"social-server/middleware"
	"social-server/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default configuration")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	db := database.Connect()
	redisClient := database.ConnectRedis()

	// Services
	blacklist := services.NewBlacklist(db, redisClient)
	authService := services.NewAuthService(db, blacklist, jwtSecret)
	postService := services.NewPostService(db)
	commentService := services.NewCommentService(db)
	likeService := services.NewLikeService(db)
	friendService := services.NewFriendService(db)
	userService := services.NewUserService(db, postService, commentService)
	timelineService := services.NewTimelineService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService)
	postHandler := handlers.NewPostHandler(postService)
	commentHandler := handlers.NewCommentHandler(commentService)
	likeHandler := handlers.NewLikeHandler(likeService)
	timelineHandler := handlers.NewTimelineHandler(timelineService)

	r := mux.NewRouter()

	r.Use(middleware.CORSMiddleware(middleware.AllowedOrigins()))
	r.Use(middleware.ErrorMiddleware())

	authenticate := middleware.Authenticate(jwtSecret, blacklist)

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")
	authRouter.Handle("/logout", authenticate(http.HandlerFunc(authHandler.Logout))).Methods("POST", "OPTIONS")

	// User routes; friend-request paths must be registered before the
	// generic {userId} ones.
	userRouter := r.PathPrefix("/users").Subrouter()
	userRouter.Handle("/friend-request/{userId}", authenticate(http.HandlerFunc(friendHandler.SendRequest))).Methods("POST", "OPTIONS")
	userRouter.Handle("/friend-request/{requestId}", authenticate(http.HandlerFunc(friendHandler.GetRequest))).Methods("GET", "OPTIONS")
	userRouter.Handle("/friend-request/{requestId}", authenticate(http.HandlerFunc(friendHandler.RespondToRequest))).Methods("PUT", "OPTIONS")
	userRouter.Handle("/friend-request/{requestId}", authenticate(http.HandlerFunc(friendHandler.DeleteRequest))).Methods("DELETE", "OPTIONS")
	userRouter.HandleFunc("", userHandler.List).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/{userId}", userHandler.GetProfile).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/{userId}/friends", userHandler.GetFriends).Methods("GET", "OPTIONS")
	userRouter.Handle("/{userId}", authenticate(http.HandlerFunc(userHandler.Update))).Methods("PUT", "OPTIONS")
	userRouter.Handle("/{userId}", authenticate(http.HandlerFunc(userHandler.Delete))).Methods("DELETE", "OPTIONS")

	// Post, comment and like routes
	postRouter := r.PathPrefix("/posts").Subrouter()
	postRouter.Use(authenticate)
	postRouter.HandleFunc("", postHandler.List).Methods("GET", "OPTIONS")
	postRouter.HandleFunc("", postHandler.Create).Methods("POST", "OPTIONS")
	postRouter.HandleFunc("/{postId}", postHandler.Get).Methods("GET", "OPTIONS")
	postRouter.HandleFunc("/{postId}", postHandler.Update).Methods("PUT", "OPTIONS")
	postRouter.HandleFunc("/{postId}", postHandler.Delete).Methods("DELETE", "OPTIONS")
	postRouter.HandleFunc("/{postId}", commentHandler.Create).Methods("POST", "OPTIONS")
	postRouter.HandleFunc("/{postId}/comments", commentHandler.List).Methods("GET", "OPTIONS")
	postRouter.HandleFunc("/{postId}/comment/{commentId}", commentHandler.Update).Methods("PUT", "OPTIONS")
	postRouter.HandleFunc("/{postId}/comment/{commentId}", commentHandler.Delete).Methods("DELETE", "OPTIONS")
	postRouter.HandleFunc("/{postId}/like", likeHandler.LikePost).Methods("POST", "OPTIONS")
	postRouter.HandleFunc("/{postId}/like", likeHandler.UnlikePost).Methods("DELETE", "OPTIONS")
	postRouter.HandleFunc("/{postId}/comment/{commentId}/like", likeHandler.LikeComment).Methods("POST", "OPTIONS")
	postRouter.HandleFunc("/{postId}/comment/{commentId}/like", likeHandler.UnlikeComment).Methods("DELETE", "OPTIONS")

	// Timeline routes
	timelineRouter := r.PathPrefix("/timeline").Subrouter()
	timelineRouter.Use(authenticate)
	timelineRouter.HandleFunc("", timelineHandler.Get).Methods("GET", "OPTIONS")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("Server starting on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
