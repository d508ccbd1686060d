package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
)

var (
	contextTokenKey = "editorToken"
	tokenAudience   = "Roadmap"
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject identifies the editor (a teacher or an administrator).
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// NewClaims returns the claims of an editor token valid for expiration.
func NewClaims(conf *core.Config, editor core.Person) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    conf.AppName,
			Subject:   editor.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  editor.Name,
		Email: editor.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the editor Claims.
func GenerateToken(secretKey string, claims *Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("token subject is required")
	}
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func jwtMiddleware(secretKey string) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextEditor identifies the editor of the request, for logs.
func contextEditor(ctx echo.Context) (core.Person, bool) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Person{}, false
	}
	return core.Person{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, true
}
