// Package middleware provides gin middleware for the catalog console.
package middleware

import (
	"net/http"

	"github.com/erp/catalog-console/internal/application/guard"
	"github.com/erp/catalog-console/internal/application/navigation"
	"github.com/gin-gonic/gin"
)

// LoadingTemplate is rendered while the session is being restored
const LoadingTemplate = "loading.html"

// RequireSession lets a request for a protected view through only when the
// guard reports an authenticated session. While the session loads a
// placeholder is shown. Public views pass untouched.
func RequireSession(g *guard.Guard, nav *navigation.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !navigation.Resolve(c.Request.URL.Path).Protected() {
			c.Next()
			return
		}
		switch g.Evaluate(c.Request.Context()) {
		case guard.Authenticated:
			c.Next()
		case guard.Loading:
			c.HTML(http.StatusOK, LoadingTemplate, gin.H{"Path": c.Request.URL.Path})
			c.Abort()
		default:
			nav.Take()
			c.Redirect(http.StatusFound, navigation.RouteLogin.String())
			c.Abort()
		}
	}
}
