package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/atelier/atelier-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// setupAuthContextWithWorkspace puts the claims of an authenticated member in the request context
func setupAuthContextWithWorkspace(c echo.Context, auth0ID string, workspaceID int32) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: auth0ID,
		},
		CustomClaims: &middleware.CustomClaims{Email: "pm@atelier.test", Name: "Project Manager"},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.Auth0IDKey, auth0ID)
	if workspaceID > 0 {
		ctx = context.WithValue(ctx, middleware.WorkspaceIDKey, workspaceID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

// newJSONContext builds a request context for a handler call.
// params alternate name and value of path parameters.
func newJSONContext(e *echo.Echo, method, target, body string, workspaceID int32, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	setupAuthContextWithWorkspace(c, "auth0|member", workspaceID)
	return c, rec
}
