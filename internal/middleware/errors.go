package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problemDetails mirrors handler.ProblemDetails without importing the handler package
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const (
	errorTypeUnauthorized = "https://atelier.app/errors/unauthorized"
	errorTypeForbidden    = "https://atelier.app/errors/forbidden"
	errorTypeRateLimit    = "https://atelier.app/errors/rate-limit"
)

func problem(c echo.Context, status int, errorType, title, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, errorTypeUnauthorized, "Unauthorized", detail)
}

func forbiddenError(c echo.Context, detail string) error {
	return problem(c, http.StatusForbidden, errorTypeForbidden, "Forbidden", detail)
}

func rateLimitError(c echo.Context, detail string) error {
	return problem(c, http.StatusTooManyRequests, errorTypeRateLimit, "Rate Limit Exceeded", detail)
}
