package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaContextKey = "response_meta"

// WithResponseMeta attaches a metadata map to the request context so handlers
// can annotate the response envelope, and stamps the processing time once the
// handler chain returns.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(metaContextKey, map[string]interface{}{})
		c.Next()
		meta(c)["processing_time_ms"] = time.Since(start).Milliseconds()
	}
}

// SetCacheHit records whether the handler served its payload from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	meta(c)["cache_hit"] = hit
}

// ExtractMeta returns the metadata accumulated for the current request, or
// nil when WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if stored, ok := c.Get(metaContextKey); ok {
		if typed, ok := stored.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func meta(c *gin.Context) map[string]interface{} {
	if m := ExtractMeta(c); m != nil {
		return m
	}
	m := map[string]interface{}{}
	c.Set(metaContextKey, m)
	return m
}
