package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// jsonMediaTypes are the bodies the write handlers decode. merge-patch is the
// natural type for PATCH with partial fields.
var jsonMediaTypes = map[string]struct{}{
	"application/json":             {},
	"application/merge-patch+json": {},
}

// RequireJSON rejects write requests whose Content-Type is not a JSON media
// type. Parameters such as charset are allowed; look-alikes such as
// application/jsonp are not.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if _, ok := jsonMediaTypes[mt]; err != nil || !ok {
				abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
