package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invoicetrust/trustdemo/internal/access"
)

const (
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"

	contextKeyRequestID = "request_id"
	contextKeyClaims    = "claims"
)

// requestIDMiddleware reuses the caller's request id or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs one line per request
func loggingMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(contextKeyRequestID),
		)
	}
}

// corsMiddleware allows the browser demo to call the API from another origin
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+RequestIDHeader)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Expose-Headers", RequestIDHeader)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AuthMiddleware validates the bearer token from the Authorization header or
// the token query parameter. With required false, requests without a token
// pass through unauthenticated; a token that is present must still be valid.
func AuthMiddleware(issuer *TokenIssuer, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		if tokenString == "" {
			if required {
				abortWithError(c, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}
			c.Next()
			return
		}

		claims, err := issuer.Parse(tokenString)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, ErrInvalidToken.Error())
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// RequireRoles rejects authenticated users whose raw role is not allowed.
// It must run after AuthMiddleware.
func RequireRoles(roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}
		if !access.HasRole(claims.Role, roles) {
			abortWithError(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the verified claims of the request, or nil
func CurrentClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(contextKeyClaims); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// CurrentUser returns the authenticated user, or nil
func CurrentUser(c *gin.Context) *access.User {
	if claims := CurrentClaims(c); claims != nil {
		return claims.User()
	}
	return nil
}

func bearerToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", errors.New("invalid authorization header format")
		}
		return parts[1], nil
	}
	// SSE clients pass the token as a query parameter
	return c.Query("token"), nil
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   msg,
	})
}
