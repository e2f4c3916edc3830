package adapters

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/toyz/typeshape/pkg/typeshape"
)

// FiberAdapter mounts operation routes on a Fiber router
type FiberAdapter struct {
	binder *typeshape.Binder
}

// NewFiberAdapter creates a new Fiber adapter
func NewFiberAdapter(binder *typeshape.Binder) *FiberAdapter {
	return &FiberAdapter{binder: binder}
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// Mount registers every route with the router
func (fa *FiberAdapter) Mount(router fiber.Router, routes []typeshape.Route) {
	for _, route := range routes {
		router.Add(route.Method, route.Path, fa.Handler(route))
	}
}

// Handler converts a route into a fiber.Handler
func (fa *FiberAdapter) Handler(route typeshape.Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// fasthttp reuses the request buffer once the handler returns
		body := bytes.Clone(c.Body())

		query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(typeshape.ErrBadRequest(err.Error()))
		}

		status, payload := fa.binder.Serve(c.UserContext(), route, typeshape.Request{
			Body:  body,
			Query: query,
		})
		if status == http.StatusNoContent {
			return c.SendStatus(status)
		}
		return c.Status(status).JSON(payload)
	}
}
