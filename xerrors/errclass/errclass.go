// Package errclass tags errors with a severity class.
package errclass

import (
	"github.com/zircuit-labs/zkr-go-taskbridge/xerrors"
)

// Class is the severity of an error. Higher values are more severe, so the class of a
// joined error is the highest class among its children.
type Class int

const (
	Nil     Class = -1
	Unknown Class = 0

	Transient  Class = 100
	Persistent Class = 110

	Panic Class = 900
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case Nil:
		return "nil"
	case Transient:
		return "transient"
	case Persistent:
		return "persistent"
	case Panic:
		return "panic"
	default:
		return "unknown"
	}
}

// WrapAs tags err with class. A nil error stays nil.
func WrapAs(err error, class Class) error {
	if err == nil {
		return nil
	}
	return xerrors.Extend(class, err)
}

// GetClass returns the class of err, taking the most severe class of joined errors.
func GetClass(err error) Class {
	if err == nil {
		return Nil
	}

	result := Nil
	for _, e := range xerrors.Unjoin(err) {
		class, ok := xerrors.Extract[Class](e)
		switch {
		case ok && class > result:
			result = class
		case !ok && result < Unknown:
			result = Unknown
		}
	}
	return result
}
