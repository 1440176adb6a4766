package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	requestContextKey = "request_context"
	InternalKeyHeader = "X-Internal-Key"
	BannedRedirect    = "/login?error=banned"
)

// RequestContext is resolved once per request and never mutated afterwards.
type RequestContext struct {
	UserID   string
	IsAdmin  bool
	IsBanned bool
}

// Current returns the caller's identity. ok is false for anonymous requests.
func Current(c *gin.Context) (RequestContext, bool) {
	v, ok := c.Get(requestContextKey)
	if !ok {
		return RequestContext{}, false
	}
	rc, ok := v.(RequestContext)
	return rc, ok
}

// UserID is empty for anonymous requests.
func UserID(c *gin.Context) string {
	rc, _ := Current(c)
	return rc.UserID
}

var (
	errMissingHeader = errors.New("missing authorization header")
	errBadHeader     = errors.New("invalid authorization format")
	errBadToken      = errors.New("invalid or expired token")
	errReplaced      = errors.New("account has been logged in elsewhere")
	errNoUser        = errors.New("user no longer exists")
	errStore         = errors.New("session store unavailable")
)

func abortIdentity(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, errStore) {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// Identity turns a bearer token into a RequestContext and signs banned users out.
type Identity struct {
	tokens   *pkg.TokenManager
	sessions *redis.SessionRepository
	users    *mysql.UserRepository
	log      *slog.Logger
}

func NewIdentity(db *gorm.DB, rdb *goredis.Client, tokens *pkg.TokenManager, log *slog.Logger) *Identity {
	return &Identity{
		tokens:   tokens,
		sessions: &redis.SessionRepository{RDB: rdb},
		users:    &mysql.UserRepository{DB: db},
		log:      log,
	}
}

// Required rejects anonymous requests with 401.
func (i *Identity) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, err := i.resolve(c)
		if err != nil {
			abortIdentity(c, err)
			return
		}
		if rc.IsBanned {
			i.signOutBanned(c, rc.UserID)
			return
		}
		c.Set(requestContextKey, rc)
		c.Next()
	}
}

// Optional lets anonymous requests through without a RequestContext.
// Banned users are still signed out.
func (i *Identity) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, err := i.resolve(c)
		if err != nil {
			if errors.Is(err, errStore) {
				abortIdentity(c, err)
				return
			}
			c.Next()
			return
		}
		if rc.IsBanned {
			i.signOutBanned(c, rc.UserID)
			return
		}
		c.Set(requestContextKey, rc)
		c.Next()
	}
}

func (i *Identity) resolve(c *gin.Context) (RequestContext, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return RequestContext{}, errMissingHeader
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return RequestContext{}, errBadHeader
	}
	tokenStr := parts[1]

	claims, err := i.tokens.ParseAccess(tokenStr)
	if err != nil {
		return RequestContext{}, errBadToken
	}

	ctx := c.Request.Context()
	var sessionErr error
	live, err := i.sessions.GetUserToken(ctx, claims.UserID)
	switch {
	case errors.Is(err, redis.ErrRedisUnavailable):
		return RequestContext{}, errStore
	case err != nil, live != tokenStr:
		sessionErr = errReplaced
	}

	user, err := i.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return RequestContext{}, errStore
	}
	if user == nil {
		return RequestContext{}, errNoUser
	}
	// a ban revokes the session, so a signed but dead token still gets the banned answer
	if user.IsBanned {
		return RequestContext{UserID: user.ID, IsAdmin: user.IsAdmin, IsBanned: true}, nil
	}
	if sessionErr != nil {
		return RequestContext{}, sessionErr
	}
	if err := i.sessions.ExtendUserToken(ctx, claims.UserID); err != nil {
		i.log.Warn("session extend failed", "user_id", claims.UserID, "err", err)
	}
	return RequestContext{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

func (i *Identity) signOutBanned(c *gin.Context, userID string) {
	if err := i.sessions.DeleteUserToken(c.Request.Context(), userID); err != nil {
		i.log.Warn("banned session revoke failed", "user_id", userID, "err", err)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    pkg.ErrBanned.Msg,
		"reason":   "banned",
		"redirect": BannedRedirect,
	})
}

// RequireAdmin must run after Identity.Required.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := Current(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": pkg.ErrUnauthorized.Msg})
			return
		}
		if !rc.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": pkg.ErrForbidden.Msg})
			return
		}
		c.Next()
	}
}

// InternalKey guards server-to-server endpoints with a shared secret.
func InternalKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(InternalKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": pkg.ErrUnauthorized.Msg})
			return
		}
		c.Next()
	}
}
