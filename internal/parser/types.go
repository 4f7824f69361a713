package parser

import "slices"

// BindingKind records how a top-level name was bound.
type BindingKind int

const (
	BindAssign BindingKind = iota
	BindAugmented
	BindImport
	BindFunction
	BindClass
	BindWalrus
)

func (k BindingKind) String() string {
	switch k {
	case BindAssign:
		return "assign"
	case BindAugmented:
		return "augmented"
	case BindImport:
		return "import"
	case BindFunction:
		return "function"
	case BindClass:
		return "class"
	case BindWalrus:
		return "walrus"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k BindingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Binding is the last top-level binding of a name in a cell. Value holds the
// right-hand side text (or the import statement) that produced it.
type Binding struct {
	Name  string      `json:"name"`
	Kind  BindingKind `json:"kind"`
	Value string      `json:"value,omitempty"`
	Line  int         `json:"line"`
}

// SymbolProfile is the read/write footprint of one cell at top level.
// Names local to functions, classes, comprehensions, loops, lambdas and
// with/except aliases never appear in it.
type SymbolProfile struct {
	Cell        int                `json:"cell"`
	Defined     []string           `json:"defined"`            // first-binding order
	Used        []string           `json:"used"`               // first-read order
	External    []string           `json:"external,omitempty"` // read before any in-cell binding
	Bindings    map[string]Binding `json:"bindings,omitempty"`
	Imports     []string           `json:"imports,omitempty"`
	Strings     []string           `json:"-"`
	Definitions []string           `json:"definitions,omitempty"`
	SyntaxError bool               `json:"syntax_error,omitempty"`
}

// EmptyProfile is the profile of a narrative or blank cell.
func EmptyProfile(cell int) *SymbolProfile {
	return &SymbolProfile{Cell: cell}
}

func (p *SymbolProfile) Defines(name string) bool {
	return slices.Contains(p.Defined, name)
}

func (p *SymbolProfile) Uses(name string) bool {
	return slices.Contains(p.Used, name)
}

// ReadsExternally reports whether the cell reads name before binding it.
func (p *SymbolProfile) ReadsExternally(name string) bool {
	return slices.Contains(p.External, name)
}

// IsImport reports whether name's final binding in this cell is an import.
func (p *SymbolProfile) IsImport(name string) bool {
	b, ok := p.Bindings[name]
	return ok && b.Kind == BindImport
}

// DefinesCallable reports whether the cell defines a function or class.
func (p *SymbolProfile) DefinesCallable() bool {
	return len(p.Definitions) > 0
}

// Empty reports whether the cell neither reads nor binds anything.
func (p *SymbolProfile) Empty() bool {
	return len(p.Defined) == 0 && len(p.Used) == 0 && len(p.Imports) == 0
}

// ProfileBuilder accumulates a SymbolProfile while a cell is walked.
type ProfileBuilder struct {
	profile *SymbolProfile
	defined map[string]bool
	used    map[string]bool
	imports map[string]bool
}

func NewProfileBuilder(cell int) *ProfileBuilder {
	return &ProfileBuilder{
		profile: &SymbolProfile{Cell: cell, Bindings: make(map[string]Binding)},
		defined: make(map[string]bool),
		used:    make(map[string]bool),
		imports: make(map[string]bool),
	}
}

// Use records a read of name. A read before any binding in the cell makes
// the name external.
func (b *ProfileBuilder) Use(name string) {
	if name == "" || b.used[name] {
		return
	}
	b.used[name] = true
	b.profile.Used = append(b.profile.Used, name)
	if !b.defined[name] {
		b.profile.External = append(b.profile.External, name)
	}
}

// Bind records a top-level binding; later bindings replace earlier ones but
// keep the name's first-binding position.
func (b *ProfileBuilder) Bind(binding Binding) {
	if binding.Name == "" {
		return
	}
	if !b.defined[binding.Name] {
		b.defined[binding.Name] = true
		b.profile.Defined = append(b.profile.Defined, binding.Name)
	}
	b.profile.Bindings[binding.Name] = binding
	switch binding.Kind {
	case BindFunction, BindClass:
		if !slices.Contains(b.profile.Definitions, binding.Name) {
			b.profile.Definitions = append(b.profile.Definitions, binding.Name)
		}
	}
}

func (b *ProfileBuilder) AddImport(statement string) {
	if statement == "" || b.imports[statement] {
		return
	}
	b.imports[statement] = true
	b.profile.Imports = append(b.profile.Imports, statement)
}

func (b *ProfileBuilder) AddString(value string) {
	b.profile.Strings = append(b.profile.Strings, value)
}

// AddDefinition records a function or class defined anywhere in the cell,
// including nested ones that bind no top-level name.
func (b *ProfileBuilder) AddDefinition(name string) {
	if name == "" || slices.Contains(b.profile.Definitions, name) {
		return
	}
	b.profile.Definitions = append(b.profile.Definitions, name)
}

func (b *ProfileBuilder) MarkSyntaxError() {
	b.profile.SyntaxError = true
}

// Profile returns the built profile. The builder must not be used afterwards.
func (b *ProfileBuilder) Profile() *SymbolProfile {
	if len(b.profile.Bindings) == 0 {
		b.profile.Bindings = nil
	}
	return b.profile
}
