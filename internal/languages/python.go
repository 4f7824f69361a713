package languages

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/morozRed/nb2prod/internal/notebook"
	"github.com/morozRed/nb2prod/internal/parser"
)

// PythonAnalyzer extracts top-level symbol profiles from Python cells
type PythonAnalyzer struct {
	parser *sitter.Parser
}

// NewPythonAnalyzer creates a new Python analyzer
func NewPythonAnalyzer() *PythonAnalyzer {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonAnalyzer{parser: p}
}

func (a *PythonAnalyzer) Language() string {
	return "python"
}

func (a *PythonAnalyzer) Aliases() []string {
	return []string{"python3", "python2", "py", "ipython", "ipython3"}
}

func (a *PythonAnalyzer) Analyze(cell notebook.Cell) (*parser.SymbolProfile, error) {
	source, ok := blankMagics(cell.Source)
	if !ok {
		return parser.EmptyProfile(cell.Index), nil
	}

	content := []byte(source)
	tree, err := a.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse cell %d: %w", cell.Index, err)
	}
	defer tree.Close()

	w := &cellWalker{content: content, b: parser.NewProfileBuilder(cell.Index)}
	root := tree.RootNode()
	if root.HasError() {
		w.b.MarkSyntaxError()
	}
	w.visitChildren(root)

	return w.b.Profile(), nil
}

// frame is a set of names that are not top-level bindings while it is open.
// Opaque frames (function, class, lambda, comprehension bodies) also stop
// any binding from reaching the top level, except that a walrus binds
// through comprehension frames into the enclosing scope.
type frame struct {
	names         map[string]bool
	opaque        bool
	comprehension bool
}

type cellWalker struct {
	content []byte
	b       *parser.ProfileBuilder
	frames  []frame
}

func (w *cellWalker) text(n *sitter.Node) string {
	return n.Content(w.content)
}

func (w *cellWalker) local(name string) bool {
	for i := len(w.frames) - 1; i >= 0; i-- {
		if w.frames[i].names[name] {
			return true
		}
	}
	return false
}

func (w *cellWalker) atTop() bool {
	return w.reachesTop(false)
}

func (w *cellWalker) reachesTop(throughComprehensions bool) bool {
	for _, f := range w.frames {
		if f.opaque && !(throughComprehensions && f.comprehension) {
			return false
		}
	}
	return true
}

func (w *cellWalker) push(names map[string]bool, opaque bool) {
	w.frames = append(w.frames, frame{names: names, opaque: opaque})
}

func (w *cellWalker) pop() {
	w.frames = w.frames[:len(w.frames)-1]
}

func (w *cellWalker) use(name string) {
	if name == "" || w.local(name) {
		return
	}
	w.b.Use(name)
}

func (w *cellWalker) bind(name string, kind parser.BindingKind, value string, node *sitter.Node) {
	if name == "" || !w.reachesTop(kind == parser.BindWalrus) || w.local(name) {
		return
	}
	w.b.Bind(parser.Binding{
		Name:  name,
		Kind:  kind,
		Value: strings.TrimSpace(value),
		Line:  int(node.StartPoint().Row) + 1,
	})
}

func (w *cellWalker) visitChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.visit(n.NamedChild(i))
	}
}

func (w *cellWalker) visit(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		w.use(w.text(n))
	case "comment", "global_statement", "nonlocal_statement", "future_import_statement":
		return
	case "assignment":
		w.visitAssignment(n)
	case "augmented_assignment":
		w.visitAugmented(n)
	case "named_expression":
		value := n.ChildByFieldName("value")
		w.visit(value)
		if name := n.ChildByFieldName("name"); name != nil && value != nil {
			w.bind(w.text(name), parser.BindWalrus, w.text(value), n)
		}
	case "import_statement", "import_from_statement":
		w.visitImport(n)
	case "function_definition":
		w.visitFunction(n)
	case "class_definition":
		w.visitClass(n)
	case "decorated_definition":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if child := n.NamedChild(i); child.Type() == "decorator" {
				w.visitChildren(child)
			}
		}
		w.visit(n.ChildByFieldName("definition"))
	case "for_statement":
		w.visitFor(n)
	case "with_statement":
		w.visitWith(n)
	case "except_clause":
		w.visitExcept(n)
	case "lambda":
		names := w.visitParameters(n.ChildByFieldName("parameters"))
		w.push(names, true)
		w.visit(n.ChildByFieldName("body"))
		w.pop()
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		w.visitComprehension(n)
	case "attribute":
		w.visit(n.ChildByFieldName("object"))
	case "keyword_argument":
		w.visit(n.ChildByFieldName("value"))
	case "string":
		w.visitString(n)
	default:
		w.visitChildren(n)
	}
}

func (w *cellWalker) visitAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	w.visit(n.ChildByFieldName("type"))

	if right == nil {
		// annotation without a value binds nothing
		w.visitTargetReads(left)
		return
	}

	value := right
	for value != nil && value.Type() == "assignment" {
		value = value.ChildByFieldName("right")
	}
	valueText := ""
	if value != nil {
		valueText = w.text(value)
	}

	w.visit(right)
	w.bindTargets(left, parser.BindAssign, valueText)
}

func (w *cellWalker) visitAugmented(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left != nil && left.Type() == "identifier" {
		name := w.text(left)
		w.use(name)
		w.visit(right)
		w.bind(name, parser.BindAugmented, w.text(n), n)
		return
	}
	w.visit(left)
	w.visit(right)
}

// bindTargets binds every name in an assignment target. Attribute and
// subscript targets mutate an existing object and count as reads.
func (w *cellWalker) bindTargets(target *sitter.Node, kind parser.BindingKind, value string) {
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		w.bind(w.text(target), kind, value, target)
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat", "as_pattern_target", "pattern":
		for i := 0; i < int(target.NamedChildCount()); i++ {
			w.bindTargets(target.NamedChild(i), kind, value)
		}
	default:
		w.visit(target)
	}
}

// visitTargetReads visits the reads hidden in a binding target (object of
// an attribute, subscript value and index) without binding anything.
func (w *cellWalker) visitTargetReads(target *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		return
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat", "as_pattern_target", "pattern":
		for i := 0; i < int(target.NamedChildCount()); i++ {
			w.visitTargetReads(target.NamedChild(i))
		}
	default:
		w.visit(target)
	}
}

func (w *cellWalker) visitImport(n *sitter.Node) {
	statement := strings.TrimSpace(w.text(n))
	if w.atTop() {
		w.b.AddImport(statement)
	}
	for _, name := range importBindings(n, w.content) {
		w.bind(name, parser.BindImport, statement, n)
	}
}

func (w *cellWalker) visitFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		w.visitChildren(n)
		return
	}
	name := w.text(nameNode)

	params := w.visitParameters(n.ChildByFieldName("parameters"))
	w.visit(n.ChildByFieldName("return_type"))

	body := n.ChildByFieldName("body")
	header := w.text(n)
	if body != nil {
		header = string(w.content[n.StartByte():body.StartByte()])
	}
	w.b.AddDefinition(name)
	w.bind(name, parser.BindFunction, strings.TrimSuffix(strings.TrimSpace(header), ":"), n)

	if body == nil {
		return
	}
	locals := collectLocals(body, w.content)
	for p := range params {
		locals[p] = true
	}
	w.push(locals, true)
	w.visit(body)
	w.pop()
}

func (w *cellWalker) visitClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		w.visitChildren(n)
		return
	}
	name := w.text(nameNode)
	w.visit(n.ChildByFieldName("superclasses"))

	body := n.ChildByFieldName("body")
	header := w.text(n)
	if body != nil {
		header = string(w.content[n.StartByte():body.StartByte()])
	}
	w.b.AddDefinition(name)
	w.bind(name, parser.BindClass, strings.TrimSuffix(strings.TrimSpace(header), ":"), n)

	if body == nil {
		return
	}
	w.push(collectLocals(body, w.content), true)
	w.visit(body)
	w.pop()
}

// visitParameters returns the parameter names and visits defaults and
// annotations, which are evaluated in the enclosing scope.
func (w *cellWalker) visitParameters(params *sitter.Node) map[string]bool {
	names := make(map[string]bool)
	if params == nil {
		return names
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case "identifier":
			names[w.text(param)] = true
		case "list_splat_pattern", "dictionary_splat_pattern":
			names[splatName(param, w.content)] = true
		case "typed_parameter":
			if first := param.NamedChild(0); first != nil {
				if first.Type() == "identifier" {
					names[w.text(first)] = true
				} else {
					names[splatName(first, w.content)] = true
				}
			}
			w.visit(param.ChildByFieldName("type"))
		case "default_parameter", "typed_default_parameter":
			if name := param.ChildByFieldName("name"); name != nil {
				names[w.text(name)] = true
			}
			w.visit(param.ChildByFieldName("type"))
			w.visit(param.ChildByFieldName("value"))
		}
	}
	delete(names, "")
	return names
}

func (w *cellWalker) visitFor(n *sitter.Node) {
	w.visit(n.ChildByFieldName("right"))

	left := n.ChildByFieldName("left")
	names := make(map[string]bool)
	for _, name := range targetNames(left, w.content) {
		names[name] = true
	}
	w.visitTargetReads(left)

	w.push(names, false)
	w.visit(n.ChildByFieldName("body"))
	w.visit(n.ChildByFieldName("alternative"))
	w.pop()
}

func (w *cellWalker) visitWith(n *sitter.Node) {
	aliases := make(map[string]bool)
	var body *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "with_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				w.visitWithItem(child.NamedChild(j), aliases)
			}
		case "with_item":
			w.visitWithItem(child, aliases)
		case "block":
			body = child
		default:
			w.visit(child)
		}
	}
	if body == nil {
		body = n.ChildByFieldName("body")
	}

	w.push(aliases, false)
	w.visit(body)
	w.pop()
}

func (w *cellWalker) visitWithItem(item *sitter.Node, aliases map[string]bool) {
	if item == nil || item.Type() != "with_item" {
		w.visit(item)
		return
	}
	value := item.ChildByFieldName("value")
	if value == nil {
		value = item.NamedChild(0)
	}
	if value != nil && value.Type() == "as_pattern" {
		w.visit(value.NamedChild(0))
		for _, name := range targetNames(asPatternAlias(value), w.content) {
			aliases[name] = true
		}
	} else {
		w.visit(value)
	}
	if alias := item.ChildByFieldName("alias"); alias != nil {
		for _, name := range targetNames(alias, w.content) {
			aliases[name] = true
		}
	}
}

func (w *cellWalker) visitExcept(n *sitter.Node) {
	aliases := make(map[string]bool)
	var blocks []*sitter.Node
	afterAs := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch {
		case child.Type() == "as":
			afterAs = true
		case child.Type() == "block":
			blocks = append(blocks, child)
		case child.Type() == "as_pattern":
			w.visit(child.NamedChild(0))
			for _, name := range targetNames(asPatternAlias(child), w.content) {
				aliases[name] = true
			}
		case !child.IsNamed():
			continue
		case afterAs:
			for _, name := range targetNames(child, w.content) {
				aliases[name] = true
			}
		default:
			w.visit(child)
		}
	}

	w.push(aliases, false)
	for _, block := range blocks {
		w.visit(block)
	}
	w.pop()
}

// visitComprehension evaluates the first iterable outside the comprehension
// scope and everything else inside it.
func (w *cellWalker) visitComprehension(n *sitter.Node) {
	var clauses []*sitter.Node
	names := make(map[string]bool)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "for_in_clause" {
			continue
		}
		clauses = append(clauses, child)
		for _, name := range targetNames(child.ChildByFieldName("left"), w.content) {
			names[name] = true
		}
	}

	if len(clauses) > 0 {
		w.visit(clauses[0].ChildByFieldName("right"))
	}

	w.frames = append(w.frames, frame{names: names, opaque: true, comprehension: true})
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "for_in_clause" {
			w.visit(child)
			continue
		}
		w.visitTargetReads(child.ChildByFieldName("left"))
		if child.StartByte() != clauses[0].StartByte() {
			w.visit(child.ChildByFieldName("right"))
		}
	}
	w.pop()
}

func (w *cellWalker) visitString(n *sitter.Node) {
	var value strings.Builder
	sawContent := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "string_content", "escape_sequence":
			value.WriteString(w.text(child))
			sawContent = true
		case "interpolation":
			w.visitChildren(child)
			sawContent = true
		}
	}
	if !sawContent {
		w.b.AddString(unquote(w.text(n)))
		return
	}
	w.b.AddString(value.String())
}

// collectLocals returns the names a function or class body binds in its own
// scope. Nested function, class, lambda and comprehension bodies are not
// entered; names declared global or nonlocal are dropped.
func collectLocals(body *sitter.Node, content []byte) map[string]bool {
	names := make(map[string]bool)
	declared := make(map[string]bool)
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition", "class_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				names[name.Content(content)] = true
			}
			return
		case "lambda", "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
			return
		case "global_statement", "nonlocal_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				declared[n.NamedChild(i).Content(content)] = true
			}
			return
		case "assignment":
			for _, name := range targetNames(n.ChildByFieldName("left"), content) {
				names[name] = true
			}
			walk(n.ChildByFieldName("right"))
			return
		case "augmented_assignment":
			if left := n.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				names[left.Content(content)] = true
			}
		case "named_expression":
			if name := n.ChildByFieldName("name"); name != nil {
				names[name.Content(content)] = true
			}
		case "for_statement":
			for _, name := range targetNames(n.ChildByFieldName("left"), content) {
				names[name] = true
			}
		case "import_statement", "import_from_statement":
			for _, name := range importBindings(n, content) {
				names[name] = true
			}
			return
		case "as_pattern":
			for _, name := range targetNames(asPatternAlias(n), content) {
				names[name] = true
			}
		case "except_clause":
			afterAs := false
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.Type() == "as" {
					afterAs = true
					continue
				}
				if afterAs && child.Type() == "identifier" {
					names[child.Content(content)] = true
					afterAs = false
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)

	for name := range declared {
		delete(names, name)
	}
	return names
}

// targetNames lists the identifiers bound by an assignment or loop target.
func targetNames(target *sitter.Node, content []byte) []string {
	if target == nil {
		return nil
	}
	switch target.Type() {
	case "identifier":
		return []string{target.Content(content)}
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat", "as_pattern_target", "pattern":
		var out []string
		for i := 0; i < int(target.NamedChildCount()); i++ {
			out = append(out, targetNames(target.NamedChild(i), content)...)
		}
		return out
	default:
		return nil
	}
}

// importBindings returns the names an import statement binds: the first
// segment of a plain dotted import, the alias of an aliased one, or each
// imported member. Wildcard imports bind nothing we can name.
func importBindings(n *sitter.Node, content []byte) []string {
	var names []string
	var module *sitter.Node
	if n.Type() == "import_from_statement" {
		module = n.ChildByFieldName("module_name")
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if module != nil && child.StartByte() == module.StartByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			name := child.Content(content)
			if n.Type() == "import_statement" {
				name, _, _ = strings.Cut(name, ".")
			}
			names = append(names, strings.TrimSpace(name))
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				names = append(names, alias.Content(content))
			}
		}
	}
	return names
}

func asPatternAlias(n *sitter.Node) *sitter.Node {
	if alias := n.ChildByFieldName("alias"); alias != nil {
		return alias
	}
	if count := int(n.NamedChildCount()); count > 1 {
		return n.NamedChild(count - 1)
	}
	return nil
}

func splatName(n *sitter.Node, content []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "identifier" {
			return child.Content(content)
		}
	}
	return ""
}

func unquote(raw string) string {
	raw = strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	return raw
}

// nonPythonCellMagics switch the whole cell to another interpreter.
var nonPythonCellMagics = map[string]bool{
	"bash": true, "sh": true, "script": true, "system": true, "html": true,
	"javascript": true, "js": true, "latex": true, "markdown": true, "svg": true,
	"sql": true, "writefile": true, "perl": true, "ruby": true,
}

var helpLine = regexp.MustCompile(`^[\w.]+\?{1,2}$`)

// blankMagics replaces IPython magic, shell escape and help lines with
// "pass" at the same indentation so line numbers and blocks survive. It
// reports false when a cell magic hands the cell to another interpreter.
func blankMagics(source string) (string, bool) {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		switch {
		case strings.HasPrefix(trimmed, "%%"):
			if fields := strings.Fields(trimmed[2:]); i == 0 && len(fields) > 0 && nonPythonCellMagics[fields[0]] {
				return "", false
			}
			lines[i] = indent + "pass"
		case strings.HasPrefix(trimmed, "%"), strings.HasPrefix(trimmed, "!"):
			lines[i] = indent + "pass"
		case helpLine.MatchString(trimmed):
			lines[i] = indent + "pass"
		}
	}
	return strings.Join(lines, "\n"), true
}
