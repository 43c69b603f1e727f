package middleware

import (
	"net/http"
	"net/http/httptest"
	"peer_quiz_backend/internal/model"
	"peer_quiz_backend/internal/util"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), AuthMiddleware(func() string { return secret }))
	r.GET("/me", func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		c.String(http.StatusOK, "%d:%s:%s", user.UserID, user.Role, c.GetString("request_id"))
	})
	r.GET("/staff", RoleMiddleware(model.Teacher), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func request(r *gin.Engine, path, tok, requestID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	tok, err := util.GenerateJWT(5, model.Student, secret, time.Hour)
	require.NoError(t, err)

	w := request(r, "/me", tok, "req-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5:student:req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	w = request(r, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter()
	for role, want := range map[model.UserRole]int{
		model.Student: http.StatusForbidden,
		model.Teacher: http.StatusNoContent,
		model.Admin:   http.StatusNoContent,
	} {
		tok, err := util.GenerateJWT(1, role, secret, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, request(r, "/staff", tok, "").Code, role)
	}
}
