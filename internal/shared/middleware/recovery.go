package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"shopora-backend/internal/shared/response"
)

// Recovery converts a panic anywhere in the handler chain into a 500
// so a single bad order or webhook payload cannot take the API down.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("request_id", c.GetString("request_id")).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Interface("panic", err).
					Bytes("stack", debug.Stack()).
					Msg("Panic recovered")

				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong")
				c.Abort()
			}
		}()

		c.Next()
	}
}
