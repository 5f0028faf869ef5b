package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginPolicy decides which browser origins may call the API or open the
// timer stream.
type OriginPolicy struct {
	any     bool
	allowed map[string]struct{}
}

func NewOriginPolicy(allowedOrigins []string) OriginPolicy {
	policy := OriginPolicy{allowed: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			policy.any = true
			continue
		}
		if origin != "" {
			policy.allowed[origin] = struct{}{}
		}
	}
	return policy
}

func (p OriginPolicy) Allows(origin string) bool {
	if p.any {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// CheckOrigin fits websocket.Upgrader. Requests without an Origin header come
// from non-browser clients and are accepted.
func (p OriginPolicy) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || p.Allows(origin)
}

func CORS(policy OriginPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && policy.Allows(origin) {
			if policy.any {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization,Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
