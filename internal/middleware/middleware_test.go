package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/cinema-booking/internal/utils"
)

const testSecret = "test-secret"

func callWith(mw echo.MiddlewareFunc, authHeader string, seed func(echo.Context)) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if seed != nil {
		seed(c)
	}
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "reached")
	})
	_ = handler(c)
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token reaches the handler and seeds the context", func(t *testing.T) {
		tok, err := utils.NewAccessToken(testSecret, 42, "ADMIN", 15)
		require.NoError(t, err)

		rec, c := callWith(JWTAuth(testSecret), "Bearer "+tok.Token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(42), c.Get("user_id"))
		assert.Equal(t, "ADMIN", c.Get("role"))
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _ := callWith(JWTAuth(testSecret), "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other-secret", 42, "ADMIN", 15)
		require.NoError(t, err)

		rec, _ := callWith(JWTAuth(testSecret), "Bearer "+tok.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _ := callWith(JWTAuth(testSecret), "Bearer not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Run("allowed role passes", func(t *testing.T) {
		rec, _ := callWith(RequireRole("ADMIN"), "", func(c echo.Context) {
			c.Set("role", "ADMIN")
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("role not in the allowed set", func(t *testing.T) {
		rec, _ := callWith(RequireRole("ADMIN"), "", func(c echo.Context) {
			c.Set("role", "CUSTOMER")
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing role", func(t *testing.T) {
		rec, _ := callWith(RequireRole("ADMIN", "CUSTOMER"), "", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
