package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/pkg/service"
)

func TestAuthMiddleware(t *testing.T) {
	jwtSvc := service.NewJWTService("secret", time.Hour)
	token, err := jwtSvc.GenerateToken("operator")
	require.NoError(t, err)

	e := echo.New()
	mw := NewAuthMiddleware(jwtSvc, zap.NewNop())
	var seenManager string
	handler := mw.Auth(func(c echo.Context) error {
		seenManager = ManagerFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"без заголовка", "", http.StatusUnauthorized},
		{"не Bearer", "Basic abc", http.StatusUnauthorized},
		{"мусорный токен", "Bearer nope", http.StatusUnauthorized},
		{"валидный токен", "Bearer " + token, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, handler(e.NewContext(req, rec)))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
	assert.Equal(t, "operator", seenManager)
}
