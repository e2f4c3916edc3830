package adapters

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/pkg/typeshape"
)

const catalogModel = `
namespace: Catalog
operations:
  - name: Rate
    parameters:
      - name: stars
        type: Edm.Int32
        nullable: false
      - name: comment
        type: Edm.String
  - name: Lookup
    kind: function
    parameters:
      - name: term
        type: Edm.String
        nullable: false
  - name: Forget
    parameters:
      - name: reason
        type: Edm.String
`

type rateParameters struct {
	Stars   int32  `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

func newRoutes(t *testing.T) (*typeshape.Binder, []typeshape.Route) {
	t.Helper()

	model, err := edm.Load(strings.NewReader(catalogModel))
	require.NoError(t, err)
	binder, err := typeshape.NewBinder(model)
	require.NoError(t, err)

	routes, err := binder.Routes("/api", map[string]typeshape.HandlerFunc{
		"Rate": func(_ context.Context, params any) (any, error) {
			p, err := typeshape.As[rateParameters](params)
			if err != nil {
				return nil, err
			}
			if p.Stars > 5 {
				return nil, typeshape.ErrBadRequest("too many stars")
			}
			return typeshape.Created(p), nil
		},
		"Lookup": func(_ context.Context, params any) (any, error) {
			return params, nil
		},
		"Forget": func(context.Context, any) (any, error) {
			return nil, nil
		},
	})
	require.NoError(t, err)
	return binder, routes
}
