package ast

// ArrayPat is [a, , ...rest]. Holes are nil.
type ArrayPat struct {
	NodeInfo
	Elems    []Pat
	Optional bool
	TypeAnn  Type
}

// ObjectPat is { a, b: c, ...rest }.
type ObjectPat struct {
	NodeInfo
	Props    []ObjectPatProp
	Optional bool
	TypeAnn  Type
}

// ObjectPatProp is a member of an object pattern.
type ObjectPatProp interface {
	Node
	objectPatPropNode()
}

// KeyValuePatProp is key: pattern.
type KeyValuePatProp struct {
	NodeInfo
	Key   Expr
	Value Pat
}

// AssignPatProp is the shorthand { a } or { a = default }.
type AssignPatProp struct {
	NodeInfo
	Key   *Ident
	Value Expr // default, may be nil
}

// AssignPat is pattern = default.
type AssignPat struct {
	NodeInfo
	Left  Pat
	Right Expr
}

// RestPat is ...pattern.
type RestPat struct {
	NodeInfo
	Arg     Pat
	TypeAnn Type
}

// ExprPat is an expression used as an assignment target, such as a member
// expression or a parenthesized target.
type ExprPat struct {
	NodeInfo
	Expr Expr
}

func (*ArrayPat) patNode()  {}
func (*ObjectPat) patNode() {}
func (*AssignPat) patNode() {}
func (*RestPat) patNode()   {}
func (*ExprPat) patNode()   {}

func (*KeyValuePatProp) objectPatPropNode() {}
func (*AssignPatProp) objectPatPropNode()   {}
func (*RestPat) objectPatPropNode()         {}

// PatIdents appends the identifiers bound by p to dst, in source order.
func PatIdents(dst []*Ident, p Pat) []*Ident {
	switch p := p.(type) {
	case *Ident:
		dst = append(dst, p)
	case *ArrayPat:
		for _, e := range p.Elems {
			if e != nil {
				dst = PatIdents(dst, e)
			}
		}
	case *ObjectPat:
		for _, prop := range p.Props {
			switch prop := prop.(type) {
			case *KeyValuePatProp:
				dst = PatIdents(dst, prop.Value)
			case *AssignPatProp:
				dst = append(dst, prop.Key)
			case *RestPat:
				dst = PatIdents(dst, prop.Arg)
			}
		}
	case *AssignPat:
		dst = PatIdents(dst, p.Left)
	case *RestPat:
		dst = PatIdents(dst, p.Arg)
	}
	return dst
}
