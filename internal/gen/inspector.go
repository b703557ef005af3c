package gen

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/funvibe/actorgen/pkg/actor"
)

// actorPkgPath is the import path generated code registers with.
const actorPkgPath = "github.com/funvibe/actorgen/pkg/actor"

// InspectResult holds everything needed to render one output file.
type InspectResult struct {
	// Facade is the config entry this result was produced for.
	Facade Facade

	PkgName string
	PkgPath string
	Dir     string

	// Output is the absolute path of the generated file.
	Output string

	// Sources lists the package's hand-written Go files.
	Sources []string

	// ActorPkg is the name generated code uses for package actor.
	ActorPkg string

	// Imports are the packages referenced by parameter types, sorted by path.
	Imports []Import

	// Interfaces are sorted by name.
	Interfaces []*Interface

	// Skipped maps interface names passed over by an "all" entry to the
	// reason they cannot be faced.
	Skipped map[string]error
}

// Import is one import line of the generated file.
type Import struct {
	Alias string
	Path  string
}

// Interface is a facade to generate.
type Interface struct {
	// Name is the interface's identifier.
	Name string

	// ActorType and Constructor are the generated identifiers.
	ActorType   string
	Constructor string

	// Fingerprint is the method-set shape hash shared with the runtime.
	Fingerprint string

	// Methods are in method-set order.
	Methods []*Method
}

// Method is one interface method and its deferred-call type.
type Method struct {
	Name     string
	CallType string
	Params   []*Param
	Variadic bool
}

// Param is one parameter, stored in the call type as field Field.
type Param struct {
	Field string

	// Type is the declared type, qualified for the generated file. For the
	// variadic parameter it is the slice type and Elem the element type.
	Type string
	Elem string
}

// Inspector loads Go packages and extracts interface method sets.
type Inspector struct {
	// dir is where package patterns are resolved.
	dir    string
	logger *zap.Logger
}

// NewInspector creates an inspector resolving patterns relative to dir.
func NewInspector(dir string, logger *zap.Logger) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{dir: dir, logger: logger}
}

// Inspect loads the entry's package and resolves the requested interfaces.
func (ins *Inspector) Inspect(ctx context.Context, f Facade) (*InspectResult, error) {
	overlay, err := ins.generatedOverlay(ctx, f.Pkg)
	if err != nil {
		return nil, err
	}

	pkg, err := ins.loadPackage(ctx, f.Pkg, overlay)
	if err != nil {
		return nil, err
	}

	if len(pkg.GoFiles) == 0 {
		return nil, fmt.Errorf("package %s has no Go files", pkg.PkgPath)
	}
	dir := filepath.Dir(pkg.GoFiles[0])

	res := &InspectResult{
		Facade:  f,
		PkgName: pkg.Name,
		PkgPath: pkg.PkgPath,
		Dir:     dir,
		Output:  filepath.Join(dir, f.OutputName()),
		Skipped: make(map[string]error),
	}
	for _, file := range pkg.GoFiles {
		if _, generated := overlay[file]; !generated {
			res.Sources = append(res.Sources, file)
		}
	}

	names := f.Interfaces
	if f.All {
		names = exportedTypeNames(pkg.Types.Scope())
	}

	imp := newImporter(pkg.Types)
	for _, name := range names {
		obj, err := lookupInterface(pkg.Types, name)
		if err != nil {
			if f.All {
				continue
			}
			return nil, err
		}

		iface, err := ins.resolveInterface(pkg.Types, obj, imp)
		if err != nil {
			if f.All {
				res.Skipped[name] = err
				ins.logger.Debug("skipping interface",
					zap.String("package", pkg.PkgPath),
					zap.String("interface", name),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		res.Interfaces = append(res.Interfaces, iface)
	}

	if len(res.Interfaces) == 0 {
		return nil, fmt.Errorf("package %s: no interfaces to generate", pkg.PkgPath)
	}

	sort.Slice(res.Interfaces, func(i, j int) bool {
		return res.Interfaces[i].Name < res.Interfaces[j].Name
	})

	if err := checkDerivedNames(pkg, res.Interfaces); err != nil {
		return nil, err
	}

	res.ActorPkg = imp.reserve(actorPkgPath, "actor")
	res.Imports = imp.imports()

	ins.logger.Debug("inspected package",
		zap.String("package", pkg.PkgPath),
		zap.Int("interfaces", len(res.Interfaces)),
		zap.Int("skipped", len(res.Skipped)))

	return res, nil
}

// generatedOverlay replaces files previously written by actorgen with a
// bare package clause, so stale output never breaks type checking and its
// identifiers are not mistaken for user declarations.
func (ins *Inspector) generatedOverlay(ctx context.Context, pattern string) (map[string][]byte, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles,
		Dir:     ins.dir,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", pattern, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("pattern %s matched %d packages, want 1", pattern, len(pkgs))
	}

	overlay := make(map[string][]byte)
	for _, file := range pkgs[0].GoFiles {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		if IsGenerated(data) {
			overlay[file] = []byte("package " + pkgs[0].Name + "\n")
		}
	}
	return overlay, nil
}

// loadPackage type-checks the package with the overlay applied.
func (ins *Inspector) loadPackage(ctx context.Context, pattern string, overlay map[string][]byte) (*packages.Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedTypes |
			packages.NeedSyntax,
		Dir:     ins.dir,
		Overlay: overlay,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", pattern, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("pattern %s matched %d packages, want 1", pattern, len(pkgs))
	}

	pkg := pkgs[0]
	var errs []string
	for _, e := range pkg.Errors {
		errs = append(errs, e.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}
	return pkg, nil
}

// IsGenerated reports whether src was written by actorgen.
func IsGenerated(src []byte) bool {
	return bytes.HasPrefix(src, []byte(generatedHeader))
}

func exportedTypeNames(scope *types.Scope) []string {
	var names []string
	for _, name := range scope.Names() {
		if _, ok := scope.Lookup(name).(*types.TypeName); ok && token.IsExported(name) {
			names = append(names, name)
		}
	}
	return names
}

// lookupInterface finds name in pkg and checks it is a usable interface.
func lookupInterface(pkg *types.Package, name string) (*types.TypeName, error) {
	obj := pkg.Scope().Lookup(name)
	if obj == nil {
		return nil, fmt.Errorf("type %q not found in package %s", name, pkg.Path())
	}

	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a type", actor.ErrNotInterface, pkg.Path(), name)
	}
	if tn.IsAlias() {
		return nil, fmt.Errorf("%s.%s is an alias; generate the facade in the package declaring the interface", pkg.Path(), name)
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", actor.ErrNotInterface, pkg.Path(), name)
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is %s", actor.ErrNotInterface, pkg.Path(), name, kindOf(named.Underlying()))
	}
	if !iface.IsMethodSet() {
		return nil, fmt.Errorf("%w: %s.%s is a constraint", actor.ErrNotInterface, pkg.Path(), name)
	}
	if named.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("%s.%s: generic interfaces are not supported", pkg.Path(), name)
	}
	return tn, nil
}

// resolveInterface validates the method set and builds the facade
// description. Every offending method is reported.
func (ins *Inspector) resolveInterface(pkg *types.Package, obj *types.TypeName, imp *importer) (*Interface, error) {
	iface := obj.Type().Underlying().(*types.Interface)
	name := obj.Name()
	qualified := pkg.Path() + "." + name

	out := &Interface{
		Name:        name,
		ActorType:   lcFirst(name) + "Actor",
		Constructor: "new" + ucFirst(name) + "Actor",
	}

	var errs error
	var shapes []string
	for i := 0; i < iface.NumMethods(); i++ {
		fn := iface.Method(i)
		sig := fn.Type().(*types.Signature)

		if !fn.Exported() {
			errs = multierr.Append(errs, &actor.SignatureError{Interface: qualified, Method: fn.Name(), Reason: "unexported method"})
			continue
		}
		if sig.Results().Len() > 0 {
			errs = multierr.Append(errs, &actor.SignatureError{Interface: qualified, Method: fn.Name(), Reason: resultReason(sig.Results())})
			continue
		}

		m := &Method{
			Name:     fn.Name(),
			CallType: lcFirst(name) + fn.Name() + "Call",
			Variadic: sig.Variadic(),
		}
		params := sig.Params()
		for j := 0; j < params.Len(); j++ {
			t := params.At(j).Type()
			if bad := hiddenType(t, pkg); bad != nil {
				errs = multierr.Append(errs, &actor.SignatureError{
					Interface: qualified,
					Method:    fn.Name(),
					Reason:    fmt.Sprintf("parameter %d uses unexported type %s", j, bad),
				})
				continue
			}
			p := &Param{
				Field: fmt.Sprintf("arg%d", j),
				Type:  types.TypeString(t, imp.qualifier),
			}
			if m.Variadic && j == params.Len()-1 {
				p.Elem = types.TypeString(t.(*types.Slice).Elem(), imp.qualifier)
			}
			m.Params = append(m.Params, p)
		}
		out.Methods = append(out.Methods, m)
		shapes = append(shapes, actor.Shape(m.Name, params.Len(), m.Variadic))
	}

	if errs != nil {
		return nil, errs
	}
	out.Fingerprint = actor.Fingerprint(shapes)
	return out, nil
}

// checkDerivedNames fails with a ConflictError when a generated identifier
// is already declared by the package or derived twice.
func checkDerivedNames(pkg *packages.Package, ifaces []*Interface) error {
	owners := make(map[string]string)
	scope := pkg.Types.Scope()

	for _, iface := range ifaces {
		requested := "facade for " + iface.Name
		idents := []string{iface.ActorType, iface.Constructor}
		for _, m := range iface.Methods {
			idents = append(idents, m.CallType)
		}

		for _, id := range idents {
			if obj := scope.Lookup(id); obj != nil {
				return &actor.ConflictError{
					Name:      pkg.PkgPath + "." + id,
					Existing:  "declared at " + pkg.Fset.Position(obj.Pos()).String(),
					Requested: requested,
				}
			}
			if prev, ok := owners[id]; ok {
				return &actor.ConflictError{
					Name:      pkg.PkgPath + "." + id,
					Existing:  prev,
					Requested: requested,
				}
			}
			owners[id] = requested
		}
	}
	return nil
}

// hiddenType returns the first named type in t that code in pkg cannot
// refer to, or nil.
func hiddenType(t types.Type, pkg *types.Package) *types.TypeName {
	switch t := t.(type) {
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() != nil && obj.Pkg() != pkg && !obj.Exported() {
			return obj
		}
		for i := 0; i < t.TypeArgs().Len(); i++ {
			if bad := hiddenType(t.TypeArgs().At(i), pkg); bad != nil {
				return bad
			}
		}
	case *types.Alias:
		return hiddenType(types.Unalias(t), pkg)
	case *types.Pointer:
		return hiddenType(t.Elem(), pkg)
	case *types.Slice:
		return hiddenType(t.Elem(), pkg)
	case *types.Array:
		return hiddenType(t.Elem(), pkg)
	case *types.Chan:
		return hiddenType(t.Elem(), pkg)
	case *types.Map:
		if bad := hiddenType(t.Key(), pkg); bad != nil {
			return bad
		}
		return hiddenType(t.Elem(), pkg)
	case *types.Signature:
		for _, tuple := range []*types.Tuple{t.Params(), t.Results()} {
			for i := 0; i < tuple.Len(); i++ {
				if bad := hiddenType(tuple.At(i).Type(), pkg); bad != nil {
					return bad
				}
			}
		}
	}
	return nil
}

var errorType = types.Universe.Lookup("error").Type()

func resultReason(results *types.Tuple) string {
	if types.Identical(results.At(results.Len()-1).Type(), errorType) {
		return "declares an error result"
	}
	return fmt.Sprintf("returns %d value(s)", results.Len())
}

func kindOf(t types.Type) string {
	switch t.(type) {
	case *types.Struct:
		return "a struct"
	case *types.Signature:
		return "a func type"
	case *types.Basic:
		return "a basic type"
	default:
		return types.TypeString(t, nil)
	}
}

// importer assigns file-level names to imported packages, avoiding the
// package's own top-level identifiers.
type importer struct {
	pkg     *types.Package
	byPath  map[string]string
	taken   map[string]bool
	ordered []Import
}

func newImporter(pkg *types.Package) *importer {
	return &importer{
		pkg:    pkg,
		byPath: make(map[string]string),
		taken:  make(map[string]bool),
	}
}

func (imp *importer) qualifier(p *types.Package) string {
	if p == imp.pkg {
		return ""
	}
	return imp.reserve(p.Path(), p.Name())
}

// reserve returns the name for path, assigning one on first use.
func (imp *importer) reserve(path, preferred string) string {
	if name, ok := imp.byPath[path]; ok {
		return name
	}

	base := ImportAlias(path)
	if preferred != "" && !goReservedWords[preferred] {
		base = preferred
	}
	name := base
	for n := 2; imp.taken[name] || imp.pkg.Scope().Lookup(name) != nil; n++ {
		name = fmt.Sprintf("%s%d", base, n)
	}

	imp.byPath[path] = name
	imp.taken[name] = true
	alias := name
	if name == lastSegment(path) {
		alias = ""
	}
	imp.ordered = append(imp.ordered, Import{Alias: alias, Path: path})
	return name
}

// imports lists the packages parameter types refer to. Package actor is
// imported by the template itself and is never part of the list.
func (imp *importer) imports() []Import {
	var out []Import
	for _, i := range imp.ordered {
		if i.Path != actorPkgPath {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func lastSegment(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func lcFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func ucFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
