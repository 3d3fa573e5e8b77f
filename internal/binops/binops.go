// Package binops defines the binary operators HIR typing accepts and the
// rule for typing them: arithmetic and modulo require both operands
// Integer and yield Integer, equality requires both operands of one equal
// type and yields Bool, less-than requires both operands Integer and
// yields Bool.
package binops

import "github.com/arcturus-lang/armc/internal/typesys"

// Operator is one of the six binary operators of the surface grammar.
type Operator int

const (
	Add Operator = iota
	Sub
	Mul
	Equals
	Less
	Modulo
)

func (o Operator) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Equals:
		return "=="
	case Less:
		return "<"
	case Modulo:
		return "%"
	default:
		return "?"
	}
}

// Typecheck returns the result type of applying op to two operands of the
// given types, or false if the operator rejects that combination — the
// caller (internal/hir) turns a false into a TypeMismatch error.
func Typecheck(op Operator, left, right typesys.GenericType) (typesys.GenericType, bool) {
	integer := typesys.PrimG(typesys.Integer)
	boolean := typesys.PrimG(typesys.Bool)

	switch op {
	case Add, Sub, Mul, Modulo:
		if left.Equal(integer) && right.Equal(integer) {
			return integer, true
		}
		return typesys.GenericType{}, false
	case Equals:
		if left.Equal(right) {
			return boolean, true
		}
		return typesys.GenericType{}, false
	case Less:
		if left.Equal(integer) && right.Equal(integer) {
			return boolean, true
		}
		return typesys.GenericType{}, false
	default:
		return typesys.GenericType{}, false
	}
}
