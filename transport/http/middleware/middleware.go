// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func skippedPathPrefixes(c *gin.Context, prefixes ...string) bool {
	path := c.Request.URL.Path
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
