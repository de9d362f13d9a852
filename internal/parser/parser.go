package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// Parser extracts top-level declarations and route registrations from Go source
type Parser struct {
	fset *token.FileSet
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		fset: token.NewFileSet(),
	}
}

// ParseFile reads and parses a Go source file from disk
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(filePath, content), nil
}

// ParseSource parses in-memory Go source. Syntax errors are recorded on the
// result and whatever partial AST the parser recovered is still walked.
func (p *Parser) ParseSource(filePath string, src []byte) *types.ParseResult {
	result := &types.ParseResult{}

	file, err := parser.ParseFile(p.fset, filePath, src, parser.SkipObjectResolution)
	if err != nil {
		result.AddError(filePath, 0, 0, fmt.Sprintf("syntax error: %v", err))
	}
	if file == nil {
		return result
	}

	if file.Name != nil {
		result.PackageName = file.Name.Name
	}
	result.Imports = extractImports(file)

	extractor := &symbolExtractor{
		fset:        p.fset,
		filePath:    filePath,
		packageName: result.PackageName,
		symbols:     make([]types.Symbol, 0),
	}
	for _, decl := range file.Decls {
		extractor.extractDecl(decl)
	}
	result.Symbols = extractor.symbols

	finder := &routeFinder{fset: p.fset, filePath: filePath}
	ast.Inspect(file, finder.visit)
	result.Routes = finder.routes

	return result
}

func extractImports(file *ast.File) []types.Import {
	imports := make([]types.Import, 0, len(file.Imports))
	for _, imp := range file.Imports {
		spec := types.Import{Path: strings.Trim(imp.Path.Value, `"`)}
		if imp.Name != nil {
			spec.Alias = imp.Name.Name
		}
		imports = append(imports, spec)
	}
	return imports
}

// symbolExtractor collects top-level declarations only
type symbolExtractor struct {
	fset        *token.FileSet
	filePath    string
	packageName string
	symbols     []types.Symbol
}

func (e *symbolExtractor) extractDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		e.extractFunction(d)
	case *ast.GenDecl:
		for _, spec := range d.Specs {
			switch s := spec.(type) {
			case *ast.TypeSpec:
				e.extractTypeSpec(s)
			case *ast.ValueSpec:
				e.extractValueSpec(s, d.Tok)
			}
		}
	}
}

func (e *symbolExtractor) newSymbol(name string, kind types.SymbolKind, node ast.Node) types.Symbol {
	return types.Symbol{
		Name:     name,
		Kind:     kind,
		Package:  e.packageName,
		File:     e.filePath,
		Exported: token.IsExported(name),
		Start:    e.position(node.Pos()),
		End:      e.position(node.End()),
	}
}

func (e *symbolExtractor) extractFunction(funcDecl *ast.FuncDecl) {
	kind := types.KindFunction
	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		kind = types.KindMethod
	}

	sym := e.newSymbol(funcDecl.Name.Name, kind, funcDecl)
	if kind == types.KindMethod {
		sym.Receiver = receiverType(funcDecl.Recv.List[0].Type)
		if sym.Receiver == "" {
			// receivers we cannot name would fail Validate
			return
		}
	}
	sym.Signature = functionSignature(funcDecl)

	e.symbols = append(e.symbols, sym)
}

func (e *symbolExtractor) extractTypeSpec(typeSpec *ast.TypeSpec) {
	name := typeSpec.Name.Name
	var sym types.Symbol

	switch t := typeSpec.Type.(type) {
	case *ast.StructType:
		sym = e.newSymbol(name, types.KindStruct, typeSpec)
		fields := fieldNames(t.Fields)
		sym.Signature = fmt.Sprintf("type %s struct { ... } // %d fields", name, len(fields))
		detectDDDPatterns(&sym)
		if !sym.IsEntity && !sym.IsValueObject && IsEntityLikeStruct(fields) {
			sym.IsEntity = true
		}
	case *ast.InterfaceType:
		sym = e.newSymbol(name, types.KindInterface, typeSpec)
		methods := 0
		if t.Methods != nil {
			methods = t.Methods.NumFields()
		}
		sym.Signature = fmt.Sprintf("type %s interface { ... } // %d methods", name, methods)
		detectDDDPatterns(&sym)
	default:
		sym = e.newSymbol(name, types.KindType, typeSpec)
		sym.Signature = fmt.Sprintf("type %s %s", name, exprToString(typeSpec.Type))
		detectDDDPatterns(&sym)
	}

	e.symbols = append(e.symbols, sym)
}

func (e *symbolExtractor) extractValueSpec(valueSpec *ast.ValueSpec, tok token.Token) {
	kind := types.KindVar
	if tok == token.CONST {
		kind = types.KindConst
	}

	for _, name := range valueSpec.Names {
		if name.Name == "_" {
			continue
		}
		sym := e.newSymbol(name.Name, kind, valueSpec)
		switch {
		case valueSpec.Type != nil:
			sym.Signature = fmt.Sprintf("%s %s", name.Name, exprToString(valueSpec.Type))
		case len(valueSpec.Values) > 0:
			sym.Signature = fmt.Sprintf("%s = ...", name.Name)
		default:
			sym.Signature = name.Name
		}
		e.symbols = append(e.symbols, sym)
	}
}

func (e *symbolExtractor) position(pos token.Pos) types.Position {
	position := e.fset.Position(pos)
	return types.Position{Line: position.Line, Column: position.Column}
}

// fieldNames lists named and embedded field names of a struct
func fieldNames(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}
	var names []string
	for _, field := range fields.List {
		if len(field.Names) == 0 {
			names = append(names, exprToString(field.Type))
			continue
		}
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
	}
	return names
}

// receiverType names the receiver base type, unwrapping pointers and type parameters
func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func functionSignature(funcDecl *ast.FuncDecl) string {
	var sig strings.Builder

	sig.WriteString("func ")
	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprToString(funcDecl.Recv.List[0].Type))
		sig.WriteString(") ")
	}
	sig.WriteString(funcDecl.Name.Name)

	sig.WriteString("(")
	sig.WriteString(fieldListToString(funcDecl.Type.Params))
	sig.WriteString(")")

	if results := funcDecl.Type.Results; results != nil {
		if s := fieldListToString(results); s != "" {
			if results.NumFields() > 1 || len(results.List[0].Names) > 0 {
				sig.WriteString(" (" + s + ")")
			} else {
				sig.WriteString(" " + s)
			}
		}
	}

	return sig.String()
}

func fieldListToString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fieldList.List {
		typeStr := exprToString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typeStr)
			continue
		}
		for _, name := range field.Names {
			parts = append(parts, name.Name+" "+typeStr)
		}
	}
	return strings.Join(parts, ", ")
}

// exprToString renders a type expression in short form
func exprToString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprToString(t.X)
	case *ast.ArrayType:
		return "[]" + exprToString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", exprToString(t.Key), exprToString(t.Value))
	case *ast.ChanType:
		return "chan " + exprToString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.StructType:
		return "struct{...}"
	case *ast.SelectorExpr:
		return exprToString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + exprToString(t.Elt)
	case *ast.IndexExpr:
		return exprToString(t.X) + "[" + exprToString(t.Index) + "]"
	case *ast.BasicLit:
		return t.Value
	default:
		return "..."
	}
}

// routeMethods maps router method names to HTTP verbs. HandleFunc and
// Handle take the verb from a Go 1.22 "METHOD /path" pattern when present.
var routeMethods = map[string]string{
	"HandleFunc": "ANY", "Handle": "ANY", "Any": "ANY",
	"GET": "GET", "POST": "POST", "PUT": "PUT", "DELETE": "DELETE", "PATCH": "PATCH",
	"Get": "GET", "Post": "POST", "Put": "PUT", "Delete": "DELETE", "Patch": "PATCH",
}

type routeFinder struct {
	fset     *token.FileSet
	filePath string
	routes   []types.Route
}

func (f *routeFinder) visit(node ast.Node) bool {
	call, ok := node.(*ast.CallExpr)
	if !ok || len(call.Args) == 0 {
		return true
	}

	var name string
	switch fn := call.Fun.(type) {
	case *ast.SelectorExpr:
		name = fn.Sel.Name
	case *ast.Ident:
		name = fn.Name
	}
	method, ok := routeMethods[name]
	if !ok {
		return true
	}

	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return true
	}
	pattern, err := strconv.Unquote(lit.Value)
	if err != nil {
		return true
	}

	if verb, rest, found := strings.Cut(pattern, " "); found && method == "ANY" {
		method, pattern = strings.ToUpper(verb), strings.TrimSpace(rest)
	}
	if !strings.HasPrefix(pattern, "/") {
		return true
	}

	handler := ""
	if len(call.Args) > 1 {
		handler = handlerName(call.Args[len(call.Args)-1])
	}

	f.routes = append(f.routes, types.Route{
		Method:  method,
		Path:    pattern,
		Handler: handler,
		File:    f.filePath,
		Line:    f.fset.Position(call.Pos()).Line,
	})
	return true
}

func handlerName(expr ast.Expr) string {
	switch h := expr.(type) {
	case *ast.FuncLit:
		return "anonymous"
	case *ast.CallExpr:
		// wrappers such as http.HandlerFunc(h) name the wrapped handler
		if len(h.Args) > 0 {
			return handlerName(h.Args[len(h.Args)-1])
		}
		return handlerName(h.Fun)
	default:
		return exprToString(expr)
	}
}
