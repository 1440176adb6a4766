package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mamane/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(t *testing.T, fn func(c *gin.Context)) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestStatusOf(t *testing.T) {
	cases := map[pkg.Kind]int{
		pkg.KindUnauthorized: http.StatusUnauthorized,
		pkg.KindForbidden:    http.StatusForbidden,
		pkg.KindInvalid:      http.StatusBadRequest,
		pkg.KindConflict:     http.StatusBadRequest,
		pkg.KindNotFound:     http.StatusNotFound,
		pkg.KindDependency:   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusOf(kind), kind.String())
	}
}

func TestWriteError_HidesDependencyCause(t *testing.T) {
	code, body := record(t, func(c *gin.Context) {
		writeError(c, pkg.Dependency("failed to record reaction", errors.New("deadlock found")))
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "failed to record reaction", body["error"])
	assert.NotContains(t, body, "details")
}

func TestWriteError_Banned(t *testing.T) {
	code, body := record(t, func(c *gin.Context) { writeError(c, pkg.ErrBanned) })
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "banned", body["reason"])
	assert.Equal(t, "/login?error=banned", body["redirect"])
}

func TestWriteAdminError_IncludesDetails(t *testing.T) {
	code, body := record(t, func(c *gin.Context) {
		writeAdminError(c, pkg.Dependency("failed to ban user", errors.New("lock wait timeout")))
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "failed to ban user", body["error"])
	assert.Equal(t, "lock wait timeout", body["details"])

	_, body = record(t, func(c *gin.Context) { writeAdminError(c, pkg.ErrUserNotFound) })
	assert.NotContains(t, body, "details")
}

func TestWriteBindError(t *testing.T) {
	type req struct {
		PostID string `json:"postId" binding:"required"`
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	c.Request.Header.Set("Content-Type", "application/json")

	var r req
	err := c.ShouldBindJSON(&r)
	require.Error(t, err)
	writeBindError(c, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PostID: required;", body["error"])
}
