package solver

// Operator is one of the four arithmetic operations a hand may use.
type Operator uint8

const (
	Add Operator = iota
	Subtract
	Multiply
	Divide
)

// Operators returns the operators in the order the search tries them.
func Operators() []Operator {
	return []Operator{Add, Subtract, Multiply, Divide}
}

// Symbol returns the operator as it appears in an expression.
func (o Operator) Symbol() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	default:
		return "?"
	}
}

func (o Operator) String() string {
	return o.Symbol()
}

// Commutative reports whether a op b always equals b op a.
func (o Operator) Commutative() bool {
	return o == Add || o == Multiply
}

// Apply computes a op b. ok is false when the operation has no usable result,
// which only happens for division by zero.
func (o Operator) Apply(a, b float64) (result float64, ok bool) {
	switch o {
	case Add:
		return a + b, true
	case Subtract:
		return a - b, true
	case Multiply:
		return a * b, true
	case Divide:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	default:
		return 0, false
	}
}
