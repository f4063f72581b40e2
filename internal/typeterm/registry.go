package typeterm

import "fmt"

// VariantDecl is one data-constructor of a sum type: a name and the tuple
// of field types it carries.
type VariantDecl struct {
	Name   string
	Fields []*Type
}

// TypeDecl is a named sum type: its type parameters and its variants.
// Variant names are globally unique (enforced by Registry.Declare).
type TypeDecl struct {
	Name     string
	Params   []string
	Variants []VariantDecl
}

// Registry maps variant name -> type name, and type name -> declaration.
// It is read-mostly after the problem definition is parsed (C11); built
// once per solve and shared by every PMRS in that solve.
type Registry struct {
	types    map[string]*TypeDecl
	variants map[string]string // variant name -> owning type name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]*TypeDecl),
		variants: make(map[string]string),
	}
}

// Declare registers a sum type and all of its variants. It fails if any
// variant name is already claimed by another type, preserving the
// invariant that variant names are globally unique.
func (r *Registry) Declare(decl *TypeDecl) error {
	if _, exists := r.types[decl.Name]; exists {
		return fmt.Errorf("type %q already declared", decl.Name)
	}

	for _, v := range decl.Variants {
		if owner, ok := r.variants[v.Name]; ok {
			return fmt.Errorf("variant %q already belongs to type %q", v.Name, owner)
		}
	}

	r.types[decl.Name] = decl
	for _, v := range decl.Variants {
		r.variants[v.Name] = decl.Name
	}

	return nil
}

// Lookup returns the declaration for a type name.
func (r *Registry) Lookup(typeName string) (*TypeDecl, bool) {
	d, ok := r.types[typeName]
	return d, ok
}

// TypeOfVariant returns the owning type name for a variant, and the
// variant's own declaration.
func (r *Registry) TypeOfVariant(variant string) (*TypeDecl, *VariantDecl, bool) {
	tn, ok := r.variants[variant]
	if !ok {
		return nil, nil, false
	}

	td := r.types[tn]

	for i := range td.Variants {
		if td.Variants[i].Name == variant {
			return td, &td.Variants[i], true
		}
	}

	return td, nil, false
}

// Instantiate substitutes a type declaration's parameters with concrete
// type arguments, returning the per-variant field types specialized to
// those arguments. Used by expansion (C3) to type the fresh payload
// variables of each variant.
func (td *TypeDecl) Instantiate(args []*Type) map[string][]*Type {
	subst := make(Subst, len(td.Params))

	for i, p := range td.Params {
		if i < len(args) {
			subst[p] = args[i]
		}
	}

	out := make(map[string][]*Type, len(td.Variants))

	for _, v := range td.Variants {
		fields := make([]*Type, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = substituteNamed(f, subst)
		}

		out[v.Name] = fields
	}

	return out
}

// Subst maps a type-parameter *name* (as declared on a TypeDecl) to a
// concrete type. This is distinct from the unifier's VarSubst (keyed by
// VarID), which maps fresh inference variables instead.
type Subst map[string]*Type

func substituteNamed(t *Type, s Subst) *Type {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case KSum, KApp:
		if repl, ok := s[t.Name]; ok && len(t.Args) == 0 {
			return repl
		}

		args := make([]*Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = substituteNamed(a, s)
		}

		return &Type{Kind: t.Kind, Name: t.Name, Args: args}
	case KFun:
		return &Type{Kind: KFun, Dom: substituteNamed(t.Dom, s), Cod: substituteNamed(t.Cod, s)}
	case KTuple:
		elems := make([]*Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = substituteNamed(e, s)
		}

		return &Type{Kind: KTuple, Elems: elems}
	default:
		return t
	}
}
