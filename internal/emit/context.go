package emit

import (
	"github.com/toyz/typeshape/internal/annotations"
	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/errors"
	"github.com/toyz/typeshape/internal/typesys"
)

// NewModelContext wires a type context for model: the application assemblies, the
// primitive assembly and a model assembly synthesized from both, the model and
// registry as services, and builder for substitution. Application assemblies are
// searched first, so a Go type registered there under a model name wins over the
// synthesized one and is narrowed to the declared properties when used.
func NewModelContext(model *edm.Model, registry *annotations.Registry, builder *ModelTypeBuilder, application ...*typesys.Assembly) (*typesys.Context, error) {
	if builder == nil {
		return nil, errors.NewArgumentError("builder")
	}
	if registry == nil {
		registry = annotations.Default()
	}

	var base typesys.AssemblySet
	for _, a := range application {
		if a != nil {
			base = append(base, a)
		}
	}
	base = append(base, typesys.PrimitiveAssembly())

	modelTypes, err := typesys.ModelAssembly(model, base)
	if err != nil {
		return nil, err
	}
	builder.diagnostics.Debug("Synthesized %d model type(s)", len(modelTypes.Names()))

	services := typesys.NewServices()
	services.Add(model)
	services.Add(registry)

	return typesys.NewContext(services, append(base, modelTypes), builder), nil
}
