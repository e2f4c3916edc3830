package adapters

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toyz/typeshape/pkg/typeshape"
)

// EchoRouter is satisfied by *echo.Echo and *echo.Group
type EchoRouter interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
}

// EchoAdapter mounts operation routes on an Echo router
type EchoAdapter struct {
	binder *typeshape.Binder
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(binder *typeshape.Binder) *EchoAdapter {
	return &EchoAdapter{binder: binder}
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// Mount registers every route with the router
func (ea *EchoAdapter) Mount(router EchoRouter, routes []typeshape.Route, middlewares ...echo.MiddlewareFunc) {
	for _, route := range routes {
		router.Add(route.Method, route.Path, ea.Handler(route), middlewares...)
	}
}

// Handler converts a route into an echo.HandlerFunc
func (ea *EchoAdapter) Handler(route typeshape.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, typeshape.ErrBadRequest(err.Error()))
		}

		status, payload := ea.binder.Serve(c.Request().Context(), route, typeshape.Request{
			Body:  body,
			Query: c.QueryParams(),
		})
		if status == http.StatusNoContent {
			return c.NoContent(status)
		}
		return c.JSON(status, payload)
	}
}
