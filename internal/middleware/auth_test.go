package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/redis"
	"mamane/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type identityEnv struct {
	engine   *gin.Engine
	tokens   *pkg.TokenManager
	sessions *redis.SessionRepository
}

func newIdentityEnv(t *testing.T) *identityEnv {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	testutil.SeedUser(t, db, "user-1", "taro")
	testutil.SeedUser(t, db, "admin-1", "admin", func(u *model.User) { u.IsAdmin = true })
	testutil.SeedUser(t, db, "user-9", "spammer", func(u *model.User) { u.IsBanned = true })

	tokens := pkg.NewTokenManager("access", "refresh")
	id := NewIdentity(db, rdb, tokens, pkg.DiscardLogger())

	r := gin.New()
	whoami := func(c *gin.Context) {
		rc, ok := Current(c)
		c.JSON(http.StatusOK, gin.H{"user_id": rc.UserID, "is_admin": rc.IsAdmin, "authenticated": ok})
	}
	r.GET("/required", id.Required(), whoami)
	r.GET("/optional", id.Optional(), whoami)
	r.GET("/admin", id.Required(), RequireAdmin(), whoami)
	r.POST("/internal", InternalKey("s3cret"), whoami)

	return &identityEnv{engine: r, tokens: tokens, sessions: &redis.SessionRepository{RDB: rdb}}
}

func (e *identityEnv) login(t *testing.T, userID string) string {
	t.Helper()
	pair, err := e.tokens.GeneratePair(userID)
	require.NoError(t, err)
	require.NoError(t, e.sessions.AddUserToken(t.Context(), userID, pair.AccessToken))
	return pair.AccessToken
}

func (e *identityEnv) do(method, path, token string, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestIdentity_Required(t *testing.T) {
	env := newIdentityEnv(t)

	w, _ := env.do(http.MethodGet, "/required", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(http.MethodGet, "/required", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := env.login(t, "user-1")
	w, body := env.do(http.MethodGet, "/required", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", body["user_id"])
	assert.Equal(t, false, body["is_admin"])

	// a newer login replaces the session
	_ = env.login(t, "user-1")
	w, _ = env.do(http.MethodGet, "/required", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentity_BannedIsSignedOut(t *testing.T) {
	env := newIdentityEnv(t)
	token := env.login(t, "user-9")

	for _, path := range []string{"/required", "/optional"} {
		w, body := env.do(http.MethodGet, path, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "banned", body["reason"], path)
		assert.Equal(t, BannedRedirect, body["redirect"], path)

		_, err := env.sessions.GetUserToken(t.Context(), "user-9")
		assert.ErrorIs(t, err, redis.ErrTokenNotFound, path)
		token = env.login(t, "user-9")
	}
}

func TestIdentity_RevokedBannedSessionKeepsBannedReason(t *testing.T) {
	env := newIdentityEnv(t)
	token := env.login(t, "user-9")
	require.NoError(t, env.sessions.DeleteUserToken(t.Context(), "user-9"))

	for _, path := range []string{"/required", "/optional"} {
		w, body := env.do(http.MethodGet, path, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "banned", body["reason"], path)
		assert.Equal(t, BannedRedirect, body["redirect"], path)
	}

	// a replaced session of a user in good standing is still just replaced
	old := env.login(t, "user-1")
	_ = env.login(t, "user-1")
	w, body := env.do(http.MethodGet, "/required", old)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, body, "reason")
}

func TestIdentity_OptionalAllowsAnonymous(t *testing.T) {
	env := newIdentityEnv(t)

	w, body := env.do(http.MethodGet, "/optional", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["authenticated"])

	token := env.login(t, "user-1")
	_, body = env.do(http.MethodGet, "/optional", token)
	assert.Equal(t, true, body["authenticated"])
}

func TestRequireAdmin(t *testing.T) {
	env := newIdentityEnv(t)

	w, _ := env.do(http.MethodGet, "/admin", env.login(t, "user-1"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := env.do(http.MethodGet, "/admin", env.login(t, "admin-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["is_admin"])
}

func TestInternalKey(t *testing.T) {
	env := newIdentityEnv(t)

	w, _ := env.do(http.MethodPost, "/internal", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = env.do(http.MethodPost, "/internal", "", InternalKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = env.do(http.MethodPost, "/internal", "", InternalKeyHeader, "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
}
