package router

import (
	"log/slog"

	"mamane/internal/handler"
	"mamane/internal/middleware"
	"mamane/internal/repository/redis"
	"mamane/internal/service"

	"github.com/gin-gonic/gin"
)

// Deps is everything the route table needs. Nil limiters disable rate limiting.
type Deps struct {
	Log           *slog.Logger
	Identity      *middleware.Identity
	Users         *service.UserService
	Posts         *service.PostService
	Reactions     *service.ReactionService
	Favorites     *service.FavoriteService
	Moderation    *service.ModerationService
	Notifier      service.IntentNotifier
	ReactLimit    *redis.TokenBucket
	FavoriteLimit *redis.TokenBucket
	InternalKey   string
}

func limit(b *redis.TokenBucket, action string, log *slog.Logger) gin.HandlerFunc {
	if b == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(b, action, log)
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log))

	user := handler.NewUserHandler(d.Users)
	post := handler.NewPostHandler(d.Posts)
	hee := handler.NewHeeHandler(d.Reactions)
	favorite := handler.NewFavoriteHandler(d.Favorites)
	admin := handler.NewAdminHandler(d.Moderation)
	notify := handler.NewNotifyHandler(d.Notifier)

	required := d.Identity.Required()
	optional := d.Identity.Optional()

	api := r.Group("/api")

	userGroup := api.Group("/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
		userGroup.POST("/logout", required, user.Logout)
		userGroup.GET("/me", required, user.Me)
		userGroup.PUT("/notifications", required, user.SetNotifications)
		userGroup.POST("/change-password", required, user.ChangePassword)
		userGroup.GET("/:id", user.Profile)
		userGroup.GET("/:id/trivia", post.ByUser)
	}

	api.POST("/token/refresh", user.TokenRefresh)

	triviaGroup := api.Group("/trivia")
	{
		triviaGroup.GET("", post.List)
		triviaGroup.GET("/search", post.Search)
		triviaGroup.GET("/:id", post.Get)
		triviaGroup.POST("", required, post.CreatePost)
		triviaGroup.DELETE("/:id", required, post.DeletePost)
		triviaGroup.GET("/:id/comments", post.ListComments)
		triviaGroup.POST("/:id/comments", required, post.CreateComment)
	}
	api.DELETE("/comment/:id", required, post.DeleteComment)
	api.GET("/ranking", post.Ranking)
	api.GET("/category", post.Categories)
	api.GET("/category/:slug/trivia", post.ByCategory)

	api.POST("/hee", required, limit(d.ReactLimit, "hee", d.Log), hee.React)
	api.GET("/hee", optional, hee.Status)
	api.GET("/hee/count", hee.Count)

	api.POST("/favorite", required, limit(d.FavoriteLimit, "favorite", d.Log), favorite.Toggle)
	api.GET("/favorite", optional, favorite.Get)

	adminGroup := api.Group("/admin")
	adminGroup.Use(required, middleware.RequireAdmin())
	{
		adminGroup.GET("/users", admin.Users)
		adminGroup.POST("/ban", admin.Ban)
		adminGroup.POST("/delete-trivia", admin.DeleteTrivia)
		adminGroup.POST("/verify-email", admin.VerifyEmail)
		adminGroup.POST("/category", admin.CreateCategory)
		adminGroup.DELETE("/category/:id", admin.DeleteCategory)
	}

	api.POST("/notify", middleware.InternalKey(d.InternalKey), notify.Notify)

	return r
}
