package typeshape

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/toyz/typeshape/internal/edm"
)

// HandlerFunc handles one operation call. params is a pointer to the bound and
// validated parameter struct; the result is encoded as JSON. Returning a
// *Response sets the status code, returning nil sends 204 No Content.
type HandlerFunc func(ctx context.Context, params any) (any, error)

// Route is an operation exposed over HTTP. Actions are POSTed with a JSON body,
// functions are called with GET and take their parameters from the query string.
type Route struct {
	Operation string
	Method    string
	Path      string
	Handler   HandlerFunc
}

// Request is the framework independent part of an incoming call
type Request struct {
	Body  []byte
	Query url.Values
}

// Routes builds one route per handler, keyed by operation name, mounted under
// prefix at the operation's full name
func (b *Binder) Routes(prefix string, handlers map[string]HandlerFunc) ([]Route, error) {
	routes := make([]Route, 0, len(handlers))
	for name, handler := range handlers {
		op, err := b.Operation(name)
		if err != nil {
			return nil, err
		}
		if _, err := b.ParametersType(name); err != nil {
			return nil, err
		}

		method := http.MethodPost
		if op.Kind == edm.FunctionOperation {
			method = http.MethodGet
		}
		routes = append(routes, Route{
			Operation: op.FullName(),
			Method:    method,
			Path:      strings.TrimRight(prefix, "/") + "/" + op.FullName(),
			Handler:   handler,
		})
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	return routes, nil
}

// Serve binds req for route, calls its handler and returns the status code and
// the value to encode as the response body
func (b *Binder) Serve(ctx context.Context, route Route, req Request) (int, any) {
	var (
		params any
		err    error
	)
	if route.Method == http.MethodGet {
		params, err = b.BindQuery(route.Operation, req.Query)
	} else {
		params, err = b.BindJSON(route.Operation, req.Body)
	}
	if err != nil {
		httpErr := AsHttpError(err)
		return httpErr.StatusCode, httpErr
	}

	result, err := route.Handler(ctx, params)
	if err != nil {
		httpErr := AsHttpError(err)
		return httpErr.StatusCode, httpErr
	}

	switch r := result.(type) {
	case nil:
		return http.StatusNoContent, nil
	case *Response:
		return r.StatusCode, r.Body
	default:
		return http.StatusOK, result
	}
}
