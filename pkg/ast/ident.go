package ast

import (
	"github.com/leapstack-labs/leapmacro/pkg/mark"
)

// Ident is an identifier. In binding positions it may carry a type
// annotation and the optional marker of TypeScript parameters.
type Ident struct {
	NodeInfo
	Name     string
	Ctxt     mark.Mark // set by the resolver for references and bindings
	Optional bool
	TypeAnn  Type
}

// ID is the resolved identity of a binding: its name and scope mark.
type ID struct {
	Name string
	Ctxt mark.Mark
}

// ToID returns the identity of the identifier.
func (i *Ident) ToID() ID {
	return ID{Name: i.Name, Ctxt: i.Ctxt}
}

// String returns the name with its mark, for debugging.
func (id ID) String() string {
	return id.Name + id.Ctxt.String()
}

// PrivateName is a #name class member key.
type PrivateName struct {
	NodeInfo
	Name string // without the leading #
}

func (*Ident) exprNode()       {}
func (*Ident) patNode()        {}
func (*PrivateName) exprNode() {}
