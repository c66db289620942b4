package middlewares

import "github.com/gin-gonic/gin"

const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

var baseSecurityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"X-XSS-Protection":        "0",
	"Content-Security-Policy": defaultCSP,
	// responses carry tokens and per-user data
	"Cache-Control": "no-store",
}

// SecurityHeaders hardens every response. HSTS is only sent in prod, where TLS terminates in front of us.
func SecurityHeaders(env string) gin.HandlerFunc {
	headers := make(map[string]string, len(baseSecurityHeaders)+1)
	for k, v := range baseSecurityHeaders {
		headers[k] = v
	}
	if env == "prod" {
		headers["Strict-Transport-Security"] = "max-age=63072000; includeSubDomains"
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range headers {
			h.Set(k, v)
		}
		c.Next()
	}
}
