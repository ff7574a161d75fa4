package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/skolard/skolard-api/internal/models"
)

func rbacTestContext(role models.UserRole, withClaims bool) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	if withClaims {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
	}
	return c, rec
}

func TestRequireRolesAllows(t *testing.T) {
	c, _ := rbacTestContext(models.RoleTutor, true)

	RequireRoles(models.RoleTutor)(c)

	assert.False(t, c.IsAborted())
}

func TestRequireRolesBlocksWrongRole(t *testing.T) {
	c, rec := rbacTestContext(models.RoleStudent, true)

	RequireRoles(models.RoleSupport)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesBlocksMissingClaims(t *testing.T) {
	c, rec := rbacTestContext(models.RoleStudent, false)

	RequireRoles(models.RoleStudent)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
