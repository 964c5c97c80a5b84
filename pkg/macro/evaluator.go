package macro

import (
	"math"
	"math/big"
	"strconv"

	"github.com/leapstack-labs/leapmacro/pkg/ast"
	"github.com/leapstack-labs/leapmacro/pkg/mark"
	"github.com/leapstack-labs/leapmacro/pkg/token"
)

// Evaluator reduces argument expressions to values without running any code.
// Identifiers evaluate when they are bound by a const declaration whose
// initializer evaluates.
type Evaluator struct {
	unresolved mark.Mark
	consts     map[ast.ID]*ast.VarDeclarator
	cache      map[ast.ID]Value
	active     map[ast.ID]bool
}

// NewEvaluator creates an evaluator. unresolved is the mark of identifiers
// without a declaration; undefined, NaN and Infinity only evaluate when they
// carry it. An empty mark accepts them by name.
func NewEvaluator(unresolved mark.Mark) *Evaluator {
	return &Evaluator{
		unresolved: unresolved,
		consts:     make(map[ast.ID]*ast.VarDeclarator),
		cache:      make(map[ast.ID]Value),
		active:     make(map[ast.ID]bool),
	}
}

// DefineConst makes the identifier declared by d evaluate to the value of its
// initializer. The initializer is read when first needed, so a macro call in
// it is seen after expansion.
func (e *Evaluator) DefineConst(d *ast.VarDeclarator) {
	if id, ok := d.Name.(*ast.Ident); ok {
		e.consts[id.ToID()] = d
	}
}

// CollectConsts defines every const declaration in the tree rooted at n.
func (e *Evaluator) CollectConsts(n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		d, ok := n.(*ast.VarDecl)
		if !ok || d.Kind != ast.VarKindConst {
			return true
		}
		for _, decl := range d.Decls {
			e.DefineConst(decl)
		}
		return true
	})
}

// evalFailure carries the node that could not be evaluated.
type evalFailure struct {
	node ast.Node
}

// shortCircuit ends an optional chain whose object is nullish.
type shortCircuit struct{}

// Eval evaluates x. A failure is an *EvaluationError spanning the innermost
// expression that could not be evaluated.
func (e *Evaluator) Eval(x ast.Expr) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(evalFailure)
			if !ok {
				panic(r)
			}
			v, err = nil, &EvaluationError{At: f.node.GetSpan()}
		}
	}()
	return e.eval(x), nil
}

// EvalArgs evaluates call arguments, flattening spreads.
func (e *Evaluator) EvalArgs(args []ast.Expr) ([]Value, error) {
	out := make([]Value, 0, len(args))
	for _, arg := range args {
		if s, ok := arg.(*ast.SpreadElement); ok {
			v, err := e.Eval(s.Arg)
			if err != nil {
				return nil, err
			}
			elems, ok := spreadElems(v)
			if !ok {
				return nil, &EvaluationError{At: s.Arg.GetSpan()}
			}
			out = append(out, elems...)
			continue
		}
		v, err := e.Eval(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fail unwinds to Eval, which turns the panic into an *EvaluationError.
func fail(n ast.Node) {
	panic(evalFailure{node: n})
}

func (e *Evaluator) eval(x ast.Expr) Value {
	switch x := x.(type) {
	case *ast.Str:
		return String(x.Value)
	case *ast.Num:
		return Number(x.Value)
	case *ast.BigInt:
		n, ok := NewBigInt(x.Raw)
		if !ok {
			fail(x)
		}
		return n
	case *ast.Bool:
		return Bool(x.Value)
	case *ast.Null:
		return Null{}
	case *ast.Regex:
		return RegExp{Pattern: x.Pattern, Flags: x.Flags}
	case *ast.Ident:
		return e.ident(x)
	case *ast.Tpl:
		return e.template(x)
	case *ast.ArrayLit:
		return e.array(x)
	case *ast.ObjectLit:
		return e.object(x)
	case *ast.UnaryExpr:
		return e.unary(x)
	case *ast.BinExpr:
		return e.binary(x)
	case *ast.CondExpr:
		if Truthy(e.eval(x.Test)) {
			return e.eval(x.Cons)
		}
		return e.eval(x.Alt)
	case *ast.SeqExpr:
		var v Value = Undefined{}
		for _, item := range x.Exprs {
			v = e.eval(item)
		}
		return v
	case *ast.ParenExpr:
		return e.eval(x.Expr)
	// Type syntax has no runtime effect
	case *ast.TsAsExpr:
		return e.eval(x.Expr)
	case *ast.TsConstAssertion:
		return e.eval(x.Expr)
	case *ast.TsSatisfiesExpr:
		return e.eval(x.Expr)
	case *ast.TsNonNullExpr:
		return e.eval(x.Expr)
	case *ast.TsTypeAssertion:
		return e.eval(x.Expr)
	case *ast.MemberExpr:
		return e.member(x)
	case *ast.ChainExpr:
		return e.chain(x)
	}
	fail(x)
	return nil
}

func (e *Evaluator) ident(id *ast.Ident) Value {
	key := id.ToID()
	if v, ok := e.cache[key]; ok {
		return v
	}
	if d, ok := e.consts[key]; ok {
		// const a = b, b = a
		if e.active[key] || d.Init == nil {
			fail(id)
		}
		e.active[key] = true
		v := e.evalOrFailAt(d.Init, id)
		delete(e.active, key)
		e.cache[key] = v
		return v
	}
	// Global constants, unless a local binding shadows them
	if e.unresolved.IsEmpty() || id.Ctxt == e.unresolved {
		switch id.Name {
		case "undefined":
			return Undefined{}
		case "NaN":
			return Number(math.NaN())
		case "Infinity":
			return Number(math.Inf(1))
		}
	}
	fail(id)
	return nil
}

// evalOrFailAt evaluates a const initializer, reporting a failure at the
// referencing identifier.
func (e *Evaluator) evalOrFailAt(init ast.Expr, at ast.Node) (v Value) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(evalFailure); ok {
				fail(at)
			}
			panic(r)
		}
	}()
	return e.eval(init)
}

func (e *Evaluator) template(t *ast.Tpl) Value {
	var out []byte
	for i, q := range t.Quasis {
		// Invalid escapes are only allowed in tagged templates
		if q.Cooked == nil {
			fail(q)
		}
		out = append(out, *q.Cooked...)
		if i < len(t.Exprs) {
			s, ok := ToString(e.eval(t.Exprs[i]))
			if !ok {
				fail(t.Exprs[i])
			}
			out = append(out, s...)
		}
	}
	return String(out)
}

// spreadElems lists the elements [...v] would produce. Strings spread by
// code point.
func spreadElems(v Value) ([]Value, bool) {
	switch v := v.(type) {
	case *Array:
		return v.Elems, true
	case String:
		var elems []Value
		for _, r := range string(v) {
			elems = append(elems, String(string(r)))
		}
		return elems, true
	}
	return nil, false
}

func (e *Evaluator) array(a *ast.ArrayLit) Value {
	arr := &Array{Elems: make([]Value, 0, len(a.Elems))}
	for _, el := range a.Elems {
		switch el := el.(type) {
		case nil:
			// Holes read as undefined
			arr.Elems = append(arr.Elems, Undefined{})
		case *ast.SpreadElement:
			elems, ok := spreadElems(e.eval(el.Arg))
			if !ok {
				fail(el.Arg)
			}
			arr.Elems = append(arr.Elems, elems...)
		default:
			arr.Elems = append(arr.Elems, e.eval(el))
		}
	}
	return arr
}

func (e *Evaluator) object(o *ast.ObjectLit) Value {
	obj := NewObject()
	for _, prop := range o.Props {
		switch p := prop.(type) {
		case *ast.KeyValueProp:
			obj.Set(e.propKey(p.Key), e.eval(p.Value))
		case *ast.ShorthandProp:
			obj.Set(p.Ident.Name, e.ident(p.Ident))
		case *ast.SpreadElement:
			switch src := e.eval(p.Arg).(type) {
			case *Object:
				for _, k := range src.keys {
					obj.Set(k, src.values[k])
				}
			case *Array:
				for i, el := range src.Elems {
					obj.Set(strconv.Itoa(i), el)
				}
			case Undefined, Null:
				// {...null} adds nothing
			default:
				fail(p.Arg)
			}
		default:
			fail(prop)
		}
	}
	return obj
}

func (e *Evaluator) propKey(key ast.Expr) string {
	switch k := key.(type) {
	case *ast.Ident:
		return k.Name
	case *ast.Str:
		return k.Value
	case *ast.Num:
		return FormatNumber(k.Value)
	case *ast.ComputedPropName:
		s, ok := ToString(e.eval(k.Expr))
		if !ok {
			fail(k)
		}
		return s
	}
	fail(key)
	return ""
}

// ---------- Operators ----------

func (e *Evaluator) unary(u *ast.UnaryExpr) Value {
	// delete has a side effect
	if u.Op == token.DELETE {
		fail(u)
	}
	v := e.eval(u.Arg)
	switch u.Op {
	case token.BANG:
		return Bool(!Truthy(v))
	case token.TYPEOF:
		return String(v.TypeOf())
	case token.VOID:
		return Undefined{}
	case token.MINUS:
		if b, ok := v.(BigInt); ok {
			return BigInt{Int: new(big.Int).Neg(b.Int)}
		}
		return Number(-e.number(v, u))
	case token.PLUS:
		return Number(e.number(v, u))
	case token.TILDE:
		if b, ok := v.(BigInt); ok {
			return BigInt{Int: new(big.Int).Not(b.Int)}
		}
		return Number(^toInt32(e.number(v, u)))
	}
	fail(u)
	return nil
}

// number converts v, failing at n for values without a static number.
func (e *Evaluator) number(v Value, n ast.Node) float64 {
	f, ok := ToNumber(primitive(v))
	if !ok {
		fail(n)
	}
	return f
}

// primitive converts arrays and objects to their string form, as the
// default ToPrimitive does for plain data.
func primitive(v Value) Value {
	switch v.(type) {
	case *Array, *Object, RegExp:
		if s, ok := ToString(v); ok {
			return String(s)
		}
	}
	return v
}

func (e *Evaluator) binary(b *ast.BinExpr) Value {
	switch b.Op {
	case token.AMP_AMP:
		if l := e.eval(b.Left); !Truthy(l) {
			return l
		}
		return e.eval(b.Right)
	case token.PIPE_PIPE:
		if l := e.eval(b.Left); Truthy(l) {
			return l
		}
		return e.eval(b.Right)
	case token.QUESTION_QUESTION:
		switch l := e.eval(b.Left).(type) {
		case Undefined, Null:
			return e.eval(b.Right)
		default:
			return l
		}
	}

	// Both sides are evaluated from here on
	l, r := e.eval(b.Left), e.eval(b.Right)
	switch b.Op {
	case token.EQ_EQ_EQ:
		return Bool(strictEquals(l, r))
	case token.NOT_EQ_EQ:
		return Bool(!strictEquals(l, r))
	case token.EQ_EQ:
		return Bool(e.looseEquals(l, r, b))
	case token.NOT_EQ:
		return Bool(!e.looseEquals(l, r, b))
	case token.PLUS:
		// Concatenation wins when either side is a string
		lp, rp := primitive(l), primitive(r)
		_, ls := lp.(String)
		_, rs := rp.(String)
		if ls || rs {
			lstr, ok1 := ToString(lp)
			rstr, ok2 := ToString(rp)
			if !ok1 || !ok2 {
				fail(b)
			}
			return String(lstr + rstr)
		}
	}

	// BigInt only mixes with BigInt
	if lb, ok := l.(BigInt); ok {
		rb, ok := r.(BigInt)
		if !ok {
			fail(b)
		}
		return bigBinary(b, lb.Int, rb.Int)
	}
	if _, ok := r.(BigInt); ok {
		fail(b)
	}

	switch b.Op {
	case token.LT, token.GT, token.LE, token.GE:
		return Bool(e.compare(b, primitive(l), primitive(r)))
	}

	x, y := e.number(l, b.Left), e.number(r, b.Right)
	switch b.Op {
	case token.PLUS:
		return Number(x + y)
	case token.MINUS:
		return Number(x - y)
	case token.STAR:
		return Number(x * y)
	case token.SLASH:
		return Number(x / y)
	case token.PERCENT:
		return Number(math.Mod(x, y))
	case token.STAR_STAR:
		return Number(math.Pow(x, y))
	case token.AMP:
		return Number(toInt32(x) & toInt32(y))
	case token.PIPE:
		return Number(toInt32(x) | toInt32(y))
	case token.CARET:
		return Number(toInt32(x) ^ toInt32(y))
	// Shift counts use the low five bits
	case token.LT_LT:
		return Number(toInt32(x) << (toUint32(y) & 31))
	case token.GT_GT:
		return Number(toInt32(x) >> (toUint32(y) & 31))
	case token.GT_GT_GT:
		return Number(toUint32(x) >> (toUint32(y) & 31))
	}
	fail(b)
	return nil
}

func (e *Evaluator) compare(b *ast.BinExpr, l, r Value) bool {
	ls, lok := l.(String)
	rs, rok := r.(String)
	if lok && rok {
		switch b.Op {
		case token.LT:
			return ls < rs
		case token.GT:
			return ls > rs
		case token.LE:
			return ls <= rs
		default:
			return ls >= rs
		}
	}
	x, y := e.number(l, b.Left), e.number(r, b.Right)
	switch b.Op {
	case token.LT:
		return x < y
	case token.GT:
		return x > y
	case token.LE:
		return x <= y
	default:
		return x >= y
	}
}

// maxBigIntBits bounds the size of a bigint the evaluator will compute.
const maxBigIntBits = 1 << 20

var bigOne = big.NewInt(1)

// tooLargePower reports whether x ** y would exceed maxBigIntBits.
func tooLargePower(x, y *big.Int) bool {
	if x.CmpAbs(bigOne) <= 0 {
		return false
	}
	if !y.IsInt64() || y.Int64() > maxBigIntBits {
		return true
	}
	return int64(x.BitLen()-1)*y.Int64() > maxBigIntBits
}

func bigBinary(b *ast.BinExpr, x, y *big.Int) Value {
	z := new(big.Int)
	switch b.Op {
	case token.PLUS:
		return BigInt{Int: z.Add(x, y)}
	case token.MINUS:
		return BigInt{Int: z.Sub(x, y)}
	case token.STAR:
		if x.BitLen()+y.BitLen() > maxBigIntBits {
			fail(b)
		}
		return BigInt{Int: z.Mul(x, y)}
	case token.SLASH:
		// RangeError at runtime; Quo truncates toward zero like BigInt division
		if y.Sign() == 0 {
			fail(b)
		}
		return BigInt{Int: z.Quo(x, y)}
	case token.PERCENT:
		if y.Sign() == 0 {
			fail(b)
		}
		return BigInt{Int: z.Rem(x, y)}
	case token.STAR_STAR:
		if y.Sign() < 0 || tooLargePower(x, y) {
			fail(b)
		}
		return BigInt{Int: z.Exp(x, y, nil)}
	case token.LT:
		return Bool(x.Cmp(y) < 0)
	case token.GT:
		return Bool(x.Cmp(y) > 0)
	case token.LE:
		return Bool(x.Cmp(y) <= 0)
	case token.GE:
		return Bool(x.Cmp(y) >= 0)
	}
	fail(b)
	return nil
}

func strictEquals(l, r Value) bool {
	switch l := l.(type) {
	case Undefined:
		_, ok := r.(Undefined)
		return ok
	case Null:
		_, ok := r.(Null)
		return ok
	case Bool:
		rv, ok := r.(Bool)
		return ok && l == rv
	case Number:
		rv, ok := r.(Number)
		return ok && float64(l) == float64(rv)
	case String:
		rv, ok := r.(String)
		return ok && l == rv
	case BigInt:
		rv, ok := r.(BigInt)
		return ok && l.Int.Cmp(rv.Int) == 0
	case *Array:
		rv, ok := r.(*Array)
		return ok && l == rv
	case *Object:
		rv, ok := r.(*Object)
		return ok && l == rv
	}
	return false
}

func (e *Evaluator) looseEquals(l, r Value, b *ast.BinExpr) bool {
	nullish := func(v Value) bool {
		switch v.(type) {
		case Undefined, Null:
			return true
		}
		return false
	}
	if nullish(l) || nullish(r) {
		return nullish(l) && nullish(r)
	}
	if l.TypeOf() == r.TypeOf() {
		return strictEquals(l, r)
	}
	lb, lbig := l.(BigInt)
	rb, rbig := r.(BigInt)
	if lbig || rbig {
		// compare a bigint with the numeric value of the other side
		other := r
		n := lb.Int
		if rbig {
			other, n = l, rb.Int
		}
		f := e.number(other, b)
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return false
		}
		bf, _ := new(big.Float).SetInt(n).Float64()
		return bf == f
	}
	return e.number(l, b.Left) == e.number(r, b.Right)
}

func toInt32(f float64) int32 {
	return int32(toUint32(f))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

// ---------- Member access ----------

// chain evaluates an optional chain. A nullish ?. anywhere inside makes the
// whole chain undefined.
func (e *Evaluator) chain(c *ast.ChainExpr) (v Value) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(shortCircuit); ok {
				v = Undefined{}
				return
			}
			panic(r)
		}
	}()
	return e.eval(c.Expr)
}

func (e *Evaluator) member(m *ast.MemberExpr) Value {
	obj := e.eval(m.Object)
	switch obj.(type) {
	case Undefined, Null:
		if m.Optional {
			panic(shortCircuit{})
		}
		fail(m)
	}

	var key string
	if m.Computed {
		k := e.eval(m.Property)
		s, ok := ToString(k)
		if !ok {
			fail(m.Property)
		}
		key = s
	} else {
		id, ok := m.Property.(*ast.Ident)
		if !ok {
			fail(m.Property)
		}
		key = id.Name
	}

	switch o := obj.(type) {
	case *Array:
		if key == "length" {
			return Number(len(o.Elems))
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(o.Elems) {
				return o.Elems[i]
			}
			return Undefined{}
		}
	case String:
		// length and indexing count UTF-16 code units
		units := utf16Units(string(o))
		if key == "length" {
			return Number(len(units))
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(units) {
				return String(decodeUnit(units[i]))
			}
			return Undefined{}
		}
	case *Object:
		if v, ok := o.Get(key); ok {
			return v
		}
		return Undefined{}
	}
	fail(m)
	return nil
}

// arrayIndex parses a canonical non-negative integer key.
func arrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

func decodeUnit(u uint16) string {
	if u >= 0xd800 && u <= 0xdfff {
		// lone surrogate has no UTF-8 form
		return "\uFFFD"
	}
	return string(rune(u))
}
