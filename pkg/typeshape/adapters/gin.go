package adapters

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toyz/typeshape/pkg/typeshape"
)

// GinAdapter mounts operation routes on a Gin router
type GinAdapter struct {
	binder *typeshape.Binder
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(binder *typeshape.Binder) *GinAdapter {
	return &GinAdapter{binder: binder}
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// Mount registers every route with the router
func (ga *GinAdapter) Mount(router gin.IRoutes, routes []typeshape.Route) {
	for _, route := range routes {
		router.Handle(route.Method, route.Path, ga.Handler(route))
	}
}

// Handler converts a route into a gin.HandlerFunc
func (ga *GinAdapter) Handler(route typeshape.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, typeshape.ErrBadRequest(err.Error()))
			return
		}

		status, payload := ga.binder.Serve(c.Request.Context(), route, typeshape.Request{
			Body:  body,
			Query: c.Request.URL.Query(),
		})
		if status == http.StatusNoContent {
			c.Status(status)
			return
		}
		c.JSON(status, payload)
	}
}
