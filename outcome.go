package nest

import "code.hybscloud.com/kont"

type outcomeKind uint8

const (
	kindReturned outcomeKind = iota
	kindErrored
	kindHalted
)

// Outcome is the terminal state of a Frame: exactly one of returned with a
// value, errored with a non-nil error, or halted. It is written at most
// once per Frame and never changes afterward.
type Outcome struct {
	kind  outcomeKind
	value any
	err   error
}

// Returned builds a successful Outcome carrying v.
func Returned(v any) Outcome { return Outcome{kind: kindReturned, value: v} }

// Errored builds a failed Outcome. It panics if err is nil, since an
// errored Outcome without a cause cannot be propagated or reported.
func Errored(err error) Outcome {
	if err == nil {
		panic("nest: Errored requires a non-nil error")
	}
	return Outcome{kind: kindErrored, err: err}
}

// Halted is the Outcome of a Frame whose computation was cancelled rather
// than having returned or failed on its own. A halted outcome never
// propagates up as an error: Scope.onChildDone ignores it.
var Halted = Outcome{kind: kindHalted}

func (o Outcome) IsReturned() bool { return o.kind == kindReturned }
func (o Outcome) IsErrored() bool  { return o.kind == kindErrored }
func (o Outcome) IsHalted() bool   { return o.kind == kindHalted }

// Value returns the success payload. It is the zero value of any if the
// Outcome is not IsReturned.
func (o Outcome) Value() any { return o.value }

// Err returns the failure cause. It is nil if the Outcome is not IsErrored.
func (o Outcome) Err() error { return o.err }

func (o Outcome) String() string {
	switch o.kind {
	case kindReturned:
		return "returned"
	case kindErrored:
		return "errored: " + o.err.Error()
	default:
		return "halted"
	}
}

// AsEither converts the return/error duality of an Outcome into a
// kont.Either, for callers already composing with the kont continuation
// library. Callers must check IsHalted first: a halted Outcome has no
// faithful Either representation and AsEither treats it as a Right(nil).
func (o Outcome) AsEither() kont.Either[error, any] {
	if o.kind == kindErrored {
		return kont.Left[error, any](o.err)
	}
	return kont.Right[error, any](o.value)
}
