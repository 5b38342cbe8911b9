// internal/nodeid/types.go
package nodeid

// Qualifier is a single (axis name, value) pair appended to a base name.
type Qualifier struct {
	Name  string
	Value string
}

// Q is shorthand for building a Qualifier.
func Q(name, value string) Qualifier {
	return Qualifier{Name: name, Value: value}
}

// Address is the structured representation of a unique node identifier.
type Address struct {
	Base       string
	Qualifiers []Qualifier
}

// New builds an address from a base name and its qualifiers.
func New(base string, qualifiers ...Qualifier) Address {
	q := make([]Qualifier, len(qualifiers))
	copy(q, qualifiers)
	return Address{Base: base, Qualifiers: q}
}

// With returns a copy of the address with extra qualifiers appended.
func (a Address) With(qualifiers ...Qualifier) Address {
	q := make([]Qualifier, 0, len(a.Qualifiers)+len(qualifiers))
	q = append(q, a.Qualifiers...)
	q = append(q, qualifiers...)
	return Address{Base: a.Base, Qualifiers: q}
}
