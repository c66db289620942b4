package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects bodies that are not JSON. Form bodies are accepted only on the given paths,
// which lets the token endpoint take OAuth2-style form posts.
func RequireJSON(formPaths ...string) gin.HandlerFunc {
	formOK := make(map[string]struct{}, len(formPaths))
	for _, p := range formPaths {
		formOK[p] = struct{}{}
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := strings.ToLower(c.GetHeader("Content-Type"))
			// allow "application/json; charset=utf-8"
			if strings.HasPrefix(ct, "application/json") {
				break
			}
			if _, ok := formOK[c.FullPath()]; ok && strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
				break
			}

			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}
		c.Next()
	}
}
