package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// pathID parses the :id segment. Anything that is not a positive integer
// cannot name a stored record, so callers answer it with 404.
func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
