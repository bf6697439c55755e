package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/darulhuda/institute-api/internal/models"
	"github.com/darulhuda/institute-api/internal/service"
)

func newProtectedRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authSvc := service.NewAuthService(zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
	})

	r := gin.New()
	r.GET("/reports",
		JWT(authSvc),
		RequireRoles(models.RoleDirector, models.RoleTeacher),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)
	return r, authSvc
}

func requestWithToken(r *gin.Engine, token string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	r, _ := newProtectedRouter(t)

	rec := requestWithToken(r, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRejectsMalformedHeader(t *testing.T) {
	r, _ := newProtectedRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteAllowsPermittedRoles(t *testing.T) {
	r, authSvc := newProtectedRouter(t)

	for _, role := range []models.UserRole{models.RoleDirector, models.RoleTeacher} {
		token, err := authSvc.IssueToken("user-1", "Ustadh Karim", role)
		require.NoError(t, err)
		rec := requestWithToken(r, token)
		assert.Equal(t, http.StatusOK, rec.Code, "role %s", role)
	}
}

func TestProtectedRouteForbidsOtherRoles(t *testing.T) {
	r, authSvc := newProtectedRouter(t)

	for _, role := range []models.UserRole{models.RoleStudent, models.RoleParent} {
		token, err := authSvc.IssueToken("user-2", "Amina", role)
		require.NoError(t, err)
		rec := requestWithToken(r, token)
		assert.Equal(t, http.StatusForbidden, rec.Code, "role %s", role)
	}
}
