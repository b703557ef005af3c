package gen

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"
)

// generatedHeader starts every file actorgen writes. The inspector relies on
// it to recognize its own output.
const generatedHeader = "// Code generated by actorgen. DO NOT EDIT."

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Path is the absolute path the file is written to.
	Path string

	// Content is the formatted Go source.
	Content []byte
}

// Generate renders and formats the facade file for res.
func Generate(res *InspectResult) (GeneratedFile, error) {
	var buf strings.Builder
	if err := facadeTemplate.Execute(&buf, res); err != nil {
		return GeneratedFile{}, fmt.Errorf("executing template for %s: %w", res.PkgPath, err)
	}

	src, err := imports.Process(res.Output, []byte(buf.String()), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("formatting %s: %w\n%s", filepath.Base(res.Output), err, buf.String())
	}

	return GeneratedFile{Path: res.Output, Content: src}, nil
}

// goReservedWords are Go keywords that cannot be used as import names.
var goReservedWords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
	// Generated code uses these identifiers.
	"init": true, "target": true, "queue": true,
}

// ImportAlias returns a valid Go identifier for an import path.
// Handles hyphens (go-redis → goredis), versioned paths (v9 → parent),
// and reserved words (go → pkgGo).
func ImportAlias(pkgPath string) string {
	parts := strings.Split(pkgPath, "/")
	last := parts[len(parts)-1]
	if isMajorVersion(last) && len(parts) > 1 {
		last = parts[len(parts)-2]
	}
	if i := strings.IndexByte(last, '.'); i > 0 {
		last = last[:i]
	}

	alias := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, last)

	if alias == "" || unicode.IsDigit(rune(alias[0])) {
		alias = "pkg" + alias
	}
	if goReservedWords[alias] {
		alias = "pkg" + strings.ToUpper(alias[:1]) + alias[1:]
	}
	return alias
}

func isMajorVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, c := range seg[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var facadeTemplate = template.Must(template.New("facade").Funcs(template.FuncMap{
	"params":  paramList,
	"args":    argList,
	"imports": importDecl,
}).Parse(facadeFileTemplate))

// paramList renders a method's parameter list for the facade method.
func paramList(m *Method) string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		if m.Variadic && i == len(m.Params)-1 {
			parts[i] = p.Field + " ..." + p.Elem
			continue
		}
		parts[i] = p.Field + " " + p.Type
	}
	return strings.Join(parts, ", ")
}

// importDecl renders the import declaration in gofmt order: the standard
// library first, then a blank line and everything else, package actor
// included. A lone import is written without parentheses.
func importDecl(res *InspectResult) string {
	self := Import{Path: actorPkgPath}
	if res.ActorPkg != "actor" {
		self.Alias = res.ActorPkg
	}

	var std, other []Import
	for _, imp := range res.Imports {
		if isStdlib(imp.Path) {
			std = append(std, imp)
		} else {
			other = append(other, imp)
		}
	}
	other = append(other, self)
	sort.Slice(std, func(i, j int) bool { return std[i].Path < std[j].Path })
	sort.Slice(other, func(i, j int) bool { return other[i].Path < other[j].Path })

	if len(std) == 0 && len(other) == 1 {
		return "import " + importSpec(self)
	}

	var b strings.Builder
	b.WriteString("import (\n")
	for _, imp := range std {
		b.WriteString("\t" + importSpec(imp) + "\n")
	}
	if len(std) > 0 {
		b.WriteString("\n")
	}
	for _, imp := range other {
		b.WriteString("\t" + importSpec(imp) + "\n")
	}
	b.WriteString(")")
	return b.String()
}

func importSpec(imp Import) string {
	if imp.Alias != "" {
		return imp.Alias + " " + strconv.Quote(imp.Path)
	}
	return strconv.Quote(imp.Path)
}

// isStdlib reports whether path belongs to the standard library, whose
// first path element never contains a dot.
func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

// argList renders the stored arguments for the call to the target.
func argList(m *Method) string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = "c." + p.Field
		if m.Variadic && i == len(m.Params)-1 {
			parts[i] += "..."
		}
	}
	return strings.Join(parts, ", ")
}

const facadeFileTemplate = generatedHeader + `

package {{.PkgName}}

{{imports .}}

func init() {
{{- range .Interfaces}}
	{{$.ActorPkg}}.Register[{{.Name}}]("{{.Fingerprint}}", {{.Constructor}})
{{- end}}
}
{{range $iface := .Interfaces}}
// {{.ActorType}} implements {{.Name}} by submitting every call to a queue.
type {{.ActorType}} struct {
	target {{.Name}}
	queue  {{$.ActorPkg}}.Queue
}

func {{.Constructor}}(target {{.Name}}, queue {{$.ActorPkg}}.Queue) {{.Name}} {
	return &{{.ActorType}}{target: target, queue: queue}
}
{{range .Methods}}
type {{.CallType}} struct {
	target {{$iface.Name}}
{{- range .Params}}
	{{.Field}} {{.Type}}
{{- end}}
}

func (c *{{.CallType}}) Run() { c.target.{{.Name}}({{args .}}) }

func (a *{{$iface.ActorType}}) {{.Name}}({{params .}}) {
	{{$.ActorPkg}}.Submit(a.queue, &{{.CallType}}{target: a.target{{range .Params}}, {{.Field}}: {{.Field}}{{end}}})
}
{{end}}
{{- end}}`
