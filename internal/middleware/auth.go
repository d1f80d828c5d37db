package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/pet-payments/pkg/tokenpkg"
	"github.com/go-petr/pet-payments/pkg/web"
)

// Authorization header parts and the gin context key of the verified payload.
const (
	AuthHeaderKey  = "authorization"
	AuthTypeBearer = "bearer"
	AuthPayloadKey = "authorization_payload"
)

// Authorization errors.
var (
	ErrAuthHeaderNotFound  = errors.New("authorization header is not provided")
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
	ErrUnsupportedAuthType = errors.New("unsupported authorization type")
)

// AddAuthorization issues a token for clientID and sets it on r.
func AddAuthorization(r *http.Request, maker tokenpkg.Maker, authType string, clientID int32, duration time.Duration) error {
	token, _, err := maker.CreateToken(clientID, duration)
	if err != nil {
		return err
	}

	r.Header.Set(AuthHeaderKey, fmt.Sprintf("%s %s", authType, token))

	return nil
}

// AuthMiddleware verifies the bearer token and stores its payload under AuthPayloadKey.
func AuthMiddleware(maker tokenpkg.Maker) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		authHeader := gctx.GetHeader(AuthHeaderKey)
		if len(authHeader) == 0 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrBadAuthHeaderFormat))
			return
		}

		authType := strings.ToLower(fields[0])
		if authType != AuthTypeBearer {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrUnsupportedAuthType))
			return
		}

		payload, err := maker.VerifyToken(fields[1])
		if err != nil {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))
			return
		}

		gctx.Set(AuthPayloadKey, payload)
		gctx.Next()
	}
}

// Payload returns the verified token payload, if authentication is enabled.
func Payload(gctx *gin.Context) (*tokenpkg.Payload, bool) {
	v, ok := gctx.Get(AuthPayloadKey)
	if !ok {
		return nil, false
	}

	p, ok := v.(*tokenpkg.Payload)

	return p, ok
}
