package typesys

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/typeshape/internal/edm"
	"github.com/toyz/typeshape/internal/errors"
)

const catalogSchema = `
namespace: Catalog
enums:
  - name: Status
    members: [Draft, Published]
types:
  - name: Product
    kind: entity
    keys: [Id]
    properties:
      - name: Id
        type: Edm.Guid
        nullable: false
      - name: Name
        type: Edm.String
      - name: Dimensions
        type: Catalog.Dimensions
      - name: Tags
        type: Collection(Edm.String)
      - name: Status
        type: Catalog.Status
  - name: Dimensions
    properties:
      - name: Width
        type: Edm.Double
        nullable: false
      - name: Height
        type: Edm.Double
        nullable: false
  - name: Category
    properties:
      - name: Name
        type: Edm.String
      - name: Parent
        type: Catalog.Category
`

func loadCatalog(t *testing.T) *edm.Model {
	t.Helper()
	model, err := edm.Load(strings.NewReader(catalogSchema))
	require.NoError(t, err)
	return model
}

func TestAssembly(t *testing.T) {
	a := NewAssembly("app")
	assert.Equal(t, "app", a.Name())

	require.NoError(t, a.Register("App.Text", reflect.TypeFor[string]()))
	require.NoError(t, a.Register("App.Alias", reflect.TypeFor[string]()))

	err := a.Register("App.Text", reflect.TypeFor[int]())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Error(t, a.Register("App.Nothing", nil))

	got, ok := a.Lookup("App.Text")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[string](), got)

	name, ok := a.NameOf(reflect.TypeFor[string]())
	require.True(t, ok)
	assert.Equal(t, "App.Text", name, "first registration wins")

	assert.Equal(t, []string{"App.Text", "App.Alias"}, a.Names())
	assert.Panics(t, func() { a.MustRegister("App.Text", reflect.TypeFor[bool]()) })
}

func TestAssemblySet(t *testing.T) {
	first := NewAssembly("first")
	second := NewAssembly("second")
	first.MustRegister("X.A", reflect.TypeFor[int]())
	second.MustRegister("X.A", reflect.TypeFor[string]())
	second.MustRegister("X.B", reflect.TypeFor[bool]())

	set := AssemblySet{first, second}
	assert.Equal(t, []string{"first", "second"}, set.Names())

	got, ok := set.Lookup("X.A")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[int](), got)

	got, ok = set.Lookup("X.B")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[bool](), got)

	_, ok = set.Lookup("X.C")
	assert.False(t, ok)

	name, ok := set.NameOf(reflect.TypeFor[string]())
	require.True(t, ok)
	assert.Equal(t, "X.A", name)
}

func TestPrimitiveAssembly(t *testing.T) {
	a := PrimitiveAssembly()
	assert.Equal(t, PrimitiveAssemblyName, a.Name())
	assert.Len(t, a.Names(), len(edm.Primitives))

	tests := map[*edm.PrimitiveType]reflect.Type{
		edm.Int32:          reflect.TypeFor[int32](),
		edm.String:         reflect.TypeFor[string](),
		edm.Guid:           reflect.TypeFor[uuid.UUID](),
		edm.DateTimeOffset: reflect.TypeFor[time.Time](),
		edm.Binary:         reflect.TypeFor[[]byte](),
		edm.Duration:       reflect.TypeFor[time.Duration](),
	}
	for def, expected := range tests {
		t.Run(def.FullName(), func(t *testing.T) {
			got, ok := a.Lookup(def.FullName())
			require.True(t, ok)
			assert.Equal(t, expected, got)
		})
	}
}

func TestModelAssembly(t *testing.T) {
	model := loadCatalog(t)
	primitives := PrimitiveAssembly()

	a, err := ModelAssembly(model, AssemblySet{primitives})
	require.NoError(t, err)
	assert.Equal(t, ModelAssemblyName, a.Name())

	product, ok := a.Lookup("Catalog.Product")
	require.True(t, ok)
	require.Equal(t, reflect.Struct, product.Kind())
	require.Equal(t, 5, product.NumField())

	id := product.Field(0)
	assert.Equal(t, "Id", id.Name)
	assert.Equal(t, reflect.TypeFor[uuid.UUID](), id.Type)
	assert.Equal(t, "Id", id.Tag.Get("json"))
	assert.Equal(t, "Key(Order=0); Required", id.Tag.Get("attr"))

	name := product.Field(1)
	assert.Equal(t, "Name,omitempty", name.Tag.Get("json"))
	_, hasAttr := name.Tag.Lookup("attr")
	assert.False(t, hasAttr)

	dimensions, ok := a.Lookup("Catalog.Dimensions")
	require.True(t, ok)
	assert.Equal(t, reflect.PointerTo(dimensions), product.Field(2).Type)
	assert.Equal(t, reflect.TypeFor[float64](), dimensions.Field(0).Type)

	assert.Equal(t, reflect.TypeFor[[]string](), product.Field(3).Type)
	assert.Equal(t, reflect.TypeFor[string](), product.Field(4).Type)

	status, ok := a.Lookup("Catalog.Status")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[string](), status)

	category, ok := a.Lookup("Catalog.Category")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[any](), category.Field(1).Type, "self reference breaks the cycle")
}

func TestModelAssemblyNilModel(t *testing.T) {
	_, err := ModelAssembly(nil, nil)
	assert.True(t, errors.HasCode(err, errors.InvalidArgumentErrorCode))
}

func TestCachingResolver(t *testing.T) {
	primitives := PrimitiveAssembly()
	set := AssemblySet{primitives}

	r, err := NewCachingResolver(8)
	require.NoError(t, err)

	got, err := r.ResolveElementType(edm.Int64, set)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[int64](), got)
	assert.Equal(t, 1, r.Len())

	got, err = r.ResolveElementType(edm.Int64, set)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[int64](), got)
	assert.Equal(t, 1, r.Len())

	other := AssemblySet{NewAssembly("edm"), primitives}
	_, err = r.ResolveElementType(edm.Int64, other)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len(), "cache is keyed by assembly set")

	r.Purge()
	assert.Equal(t, 0, r.Len())
}

func TestCachingResolverCollection(t *testing.T) {
	r := DefaultResolver()
	coll := edm.NewCollectionReference(edm.NewTypeReference(edm.String, true), true)

	got, err := r.ResolveElementType(coll.Definition(), AssemblySet{PrimitiveAssembly()})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[[]string](), got)
}

func TestCachingResolverErrors(t *testing.T) {
	r := DefaultResolver()

	_, err := r.ResolveElementType(nil, nil)
	assert.True(t, errors.HasCode(err, errors.InvalidArgumentErrorCode))

	missing := edm.NewComplexType("Nowhere", "Thing")
	_, err = r.ResolveElementType(missing, AssemblySet{PrimitiveAssembly(), NewAssembly("app")})
	require.Error(t, err)

	var resolutionErr *errors.TypeResolutionError
	require.ErrorAs(t, err, &resolutionErr)
	assert.Equal(t, "Nowhere.Thing", resolutionErr.TypeName)
	assert.Equal(t, []string{"edm", "app"}, resolutionErr.Assemblies)
	assert.Equal(t, 0, r.Len(), "failures are not cached")

	_, err = NewCachingResolver(0)
	assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
}

func TestServices(t *testing.T) {
	services := NewServices()
	model := edm.NewModel()
	services.Add(model)
	AddService[Resolver](services, DefaultResolver())

	got, ok := ServiceOf[*edm.Model](services)
	require.True(t, ok)
	assert.Same(t, model, got)

	resolver, ok := ServiceOf[Resolver](services)
	require.True(t, ok)
	assert.NotNil(t, resolver)

	_, ok = ServiceOf[*Assembly](services)
	assert.False(t, ok)

	_, ok = ServiceOf[*edm.Model](nil)
	assert.False(t, ok)
}

func TestContextDefaults(t *testing.T) {
	ctx := NewContext(NewServices(), AssemblySet{PrimitiveAssembly()}, nil)
	assert.NotNil(t, ctx.Resolver)
	assert.Equal(t, ModelSubstituter{}, ctx.Substituter)

	bare := &Context{Assemblies: AssemblySet{PrimitiveAssembly()}}
	got, err := bare.ResolveElementType(edm.Boolean)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[bool](), got)

	same, err := bare.SubstituteIfNecessary(got)
	require.NoError(t, err)
	assert.Equal(t, got, same)
}

func TestIdentityAndMapping(t *testing.T) {
	intType := reflect.TypeFor[int]()

	got, err := Identity.SubstituteIfNecessary(intType, nil)
	require.NoError(t, err)
	assert.Equal(t, intType, got)

	m := Mapping{intType: reflect.TypeFor[int64]()}
	got, err = m.SubstituteIfNecessary(intType, nil)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[int64](), got)

	got, err = m.SubstituteIfNecessary(reflect.TypeFor[string](), nil)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[string](), got)
}

type appDimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type appProduct struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Dimensions *appDimensions `json:"dimensions"`
	Internal   string         `json:"internal"`
	secret     string
}

type appShelf struct {
	Name string         `json:"name"`
	Size *appDimensions `json:"size"`
}

// recordingBuilder narrows a struct to its declared fields and records each call
type recordingBuilder struct {
	calls []string
}

func (b *recordingBuilder) NewStructuredType(def *edm.StructuredType, goType reflect.Type, _ *Context) (reflect.Type, error) {
	b.calls = append(b.calls, def.FullName())
	var fields []reflect.StructField
	for i := 0; i < goType.NumField(); i++ {
		f := goType.Field(i)
		if _, ok := DeclaredProperty(def, f); ok && f.IsExported() {
			fields = append(fields, reflect.StructField{Name: f.Name, Type: f.Type, Tag: f.Tag})
		}
	}
	return reflect.StructOf(fields), nil
}

func substitutionContext(t *testing.T, builder TypeBuilder) *Context {
	t.Helper()
	model := loadCatalog(t)
	services := NewServices()
	services.Add(model)

	app := NewAssembly("app")
	app.MustRegister("Catalog.Product", reflect.TypeFor[appProduct]())
	app.MustRegister("Catalog.Dimensions", reflect.TypeFor[appDimensions]())
	app.MustRegister("Catalog.Category", reflect.TypeFor[appShelf]())

	return NewContext(services, AssemblySet{PrimitiveAssembly(), app}, builder)
}

func TestModelSubstituter(t *testing.T) {
	builder := &recordingBuilder{}
	ctx := substitutionContext(t, builder)

	got, err := ctx.SubstituteIfNecessary(reflect.TypeFor[appProduct]())
	require.NoError(t, err)
	require.Equal(t, []string{"Catalog.Product"}, builder.calls)
	assert.Equal(t, 3, got.NumField())
	_, hasInternal := got.FieldByName("Internal")
	assert.False(t, hasInternal)

	builder.calls = nil
	got, err = ctx.SubstituteIfNecessary(reflect.TypeFor[[]*appProduct]())
	require.NoError(t, err)
	assert.Equal(t, reflect.Slice, got.Kind())
	assert.Equal(t, reflect.Pointer, got.Elem().Kind())
	assert.Equal(t, 3, got.Elem().Elem().NumField())
	assert.Equal(t, []string{"Catalog.Product"}, builder.calls)

	builder.calls = nil
	got, err = ctx.SubstituteIfNecessary(reflect.TypeFor[appDimensions]())
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[appDimensions](), got, "fully declared types are kept")
	assert.Empty(t, builder.calls)

	got, err = ctx.SubstituteIfNecessary(reflect.TypeFor[map[string]appProduct]())
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[string](), got.Key())
	assert.NotEqual(t, reflect.TypeFor[appProduct](), got.Elem())

	got, err = ctx.SubstituteIfNecessary(reflect.TypeFor[int32]())
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[int32](), got)
}

func TestModelSubstituterNestedAndMissingBuilder(t *testing.T) {
	ctx := substitutionContext(t, nil)

	// appShelf stands for Catalog.Category whose model lacks "size"
	_, err := ctx.SubstituteIfNecessary(reflect.TypeFor[appShelf]())
	assert.True(t, errors.HasCode(err, errors.InvalidArgumentErrorCode))

	noModel := &Context{Services: NewServices(), Assemblies: ctx.Assemblies, Substituter: ModelSubstituter{}}
	got, err := noModel.SubstituteIfNecessary(reflect.TypeFor[appProduct]())
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[appProduct](), got)
}

func TestMemberNameAndDeclaredProperty(t *testing.T) {
	type sample struct {
		Plain   string
		Tagged  string `json:"tagged_name,omitempty"`
		Skipped string `json:"-"`
		Empty   string `json:",omitempty"`
	}
	st := reflect.TypeFor[sample]()

	assert.Equal(t, "Plain", MemberName(st.Field(0)))
	assert.Equal(t, "tagged_name", MemberName(st.Field(1)))
	assert.Equal(t, "", MemberName(st.Field(2)))
	assert.Equal(t, "Empty", MemberName(st.Field(3)))

	def := edm.NewComplexType("T", "Sample",
		edm.Property{Name: "plain", Type: edm.NewTypeReference(edm.String, true)},
		edm.Property{Name: "Tagged_Name", Type: edm.NewTypeReference(edm.String, true)},
	)
	p, ok := DeclaredProperty(def, st.Field(0))
	require.True(t, ok)
	assert.Equal(t, "plain", p.Name)
	_, ok = DeclaredProperty(def, st.Field(1))
	assert.True(t, ok)
	_, ok = DeclaredProperty(def, st.Field(2))
	assert.False(t, ok)
}
