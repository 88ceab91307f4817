package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campushub/campus-api/internal/models"
)

func roleGatedStatus(t *testing.T, claims interface{}, roles ...models.UserRole) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/guarded",
		func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
		},
		RequireRoles(roles...),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireRolesRejectsMissingClaims(t *testing.T) {
	code := roleGatedStatus(t, nil, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRequireRolesRejectsMalformedClaims(t *testing.T) {
	code := roleGatedStatus(t, "not-claims", models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRequireRolesForbidsUnlistedRole(t *testing.T) {
	student := &models.JWTClaims{UserID: "user-9", Role: models.RoleStudent}
	code := roleGatedStatus(t, student, models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, code)

	teacher := &models.JWTClaims{UserID: "user-2", Role: models.RoleTeacher}
	code = roleGatedStatus(t, teacher, models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, code, "admin-only routes stay closed to teachers")
}

func TestRequireRolesAllowsListedRoles(t *testing.T) {
	admin := &models.JWTClaims{UserID: "user-1", Role: models.RoleAdmin}
	assert.Equal(t, http.StatusOK, roleGatedStatus(t, admin, models.RoleAdmin))

	teacher := &models.JWTClaims{UserID: "user-2", Role: models.RoleTeacher}
	assert.Equal(t, http.StatusOK, roleGatedStatus(t, teacher, models.RoleAdmin, models.RoleTeacher))
}
