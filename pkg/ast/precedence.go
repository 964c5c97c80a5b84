package ast

import "github.com/leapstack-labs/leapmacro/pkg/token"

// Operator precedence levels, lowest first.
const (
	PrecLowest     = iota
	PrecComma      // ,
	PrecYield      // spread
	PrecAssign     // = += ... yield, arrow
	PrecCond       // ?:
	PrecNullish    // ??
	PrecLogicalOr  // ||
	PrecLogicalAnd // &&
	PrecBitOr      // |
	PrecBitXor     // ^
	PrecBitAnd     // &
	PrecEquality   // == != === !==
	PrecRelational // < > <= >= instanceof in as satisfies
	PrecShift      // << >> >>>
	PrecAdditive   // + -
	PrecMultiply   // * / %
	PrecExponent   // **
	PrecPrefix     // ! ~ - + typeof void delete await ++x
	PrecPostfix    // x++
	PrecNew        // new without arguments
	PrecCall       // calls, members, new with arguments
	PrecPrimary
)

var binaryPrecedence = map[token.TokenType]int{
	token.QUESTION_QUESTION: PrecNullish,
	token.PIPE_PIPE:         PrecLogicalOr,
	token.AMP_AMP:           PrecLogicalAnd,
	token.PIPE:              PrecBitOr,
	token.CARET:             PrecBitXor,
	token.AMP:               PrecBitAnd,
	token.EQ_EQ:             PrecEquality,
	token.NOT_EQ:            PrecEquality,
	token.EQ_EQ_EQ:          PrecEquality,
	token.NOT_EQ_EQ:         PrecEquality,
	token.LT:                PrecRelational,
	token.GT:                PrecRelational,
	token.LE:                PrecRelational,
	token.GE:                PrecRelational,
	token.INSTANCEOF:        PrecRelational,
	token.IN:                PrecRelational,
	token.LT_LT:             PrecShift,
	token.GT_GT:             PrecShift,
	token.GT_GT_GT:          PrecShift,
	token.PLUS:              PrecAdditive,
	token.MINUS:             PrecAdditive,
	token.STAR:              PrecMultiply,
	token.SLASH:             PrecMultiply,
	token.PERCENT:           PrecMultiply,
	token.STAR_STAR:         PrecExponent,
}

// BinaryPrecedence returns the precedence of a binary operator, or 0.
func BinaryPrecedence(op token.TokenType) int {
	return binaryPrecedence[op]
}

// IsLogical reports whether op is &&, || or ??.
func IsLogical(op token.TokenType) bool {
	return op == token.AMP_AMP || op == token.PIPE_PIPE || op == token.QUESTION_QUESTION
}

// Precedence returns the precedence of an expression node, used to decide
// where parentheses are needed.
func Precedence(e Expr) int {
	switch e := e.(type) {
	case *SeqExpr:
		return PrecComma
	case *SpreadElement:
		return PrecYield
	case *AssignExpr, *YieldExpr, *ArrowExpr:
		return PrecAssign
	case *CondExpr:
		return PrecCond
	case *BinExpr:
		return BinaryPrecedence(e.Op)
	case *TsAsExpr, *TsSatisfiesExpr, *TsConstAssertion:
		return PrecRelational
	case *UnaryExpr, *AwaitExpr, *TsTypeAssertion:
		return PrecPrefix
	case *UpdateExpr:
		if e.Prefix {
			return PrecPrefix
		}
		return PrecPostfix
	case *NewExpr:
		if e.Args == nil {
			return PrecNew
		}
		return PrecCall
	case *CallExpr, *MemberExpr, *ChainExpr, *TaggedTpl, *TsNonNullExpr, *TsInstantiation, *MetaProp:
		return PrecCall
	}
	return PrecPrimary
}
