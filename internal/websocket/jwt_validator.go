package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

var (
	// ErrInvalidToken is returned when JWT validation fails
	ErrInvalidToken = errors.New("invalid token")
	// ErrWorkspaceNotFound is returned when the token subject is not a workspace member
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// WorkspaceLookup resolves the workspace of a member by Auth0 subject
type WorkspaceLookup interface {
	GetWorkspaceByAuth0ID(auth0ID string) (workspaceID int32, err error)
}

// tokenParser is the part of *validator.Validator the WebSocket handshake needs
type tokenParser interface {
	ValidateToken(ctx context.Context, tokenString string) (interface{}, error)
}

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator authenticates WebSocket handshakes, which carry the
// access token as a query parameter instead of an Authorization header
type Auth0JWTValidator struct {
	parser          tokenParser
	workspaceLookup WorkspaceLookup
	timeout         time.Duration
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string, workspaceLookup WorkspaceLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return newValidator(jwtValidator, workspaceLookup), nil
}

func newValidator(parser tokenParser, workspaceLookup WorkspaceLookup) *Auth0JWTValidator {
	return &Auth0JWTValidator{
		parser:          parser,
		workspaceLookup: workspaceLookup,
		timeout:         10 * time.Second,
	}
}

// ValidateToken validates a JWT and returns the workspace of its subject
func (v *Auth0JWTValidator) ValidateToken(token string) (workspaceID int32, err error) {
	if token == "" {
		return 0, ErrInvalidToken
	}

	// JWKS fetches happen inside ValidateToken
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	claims, err := v.parser.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok || validatedClaims.RegisteredClaims.Subject == "" {
		return 0, ErrInvalidToken
	}

	wsID, err := v.workspaceLookup.GetWorkspaceByAuth0ID(validatedClaims.RegisteredClaims.Subject)
	if err != nil {
		return 0, ErrWorkspaceNotFound
	}
	return wsID, nil
}
