package dck

import "errors"

// Errors
var (
	ErrDivisionByZero      = errors.New("division by zero")
	ErrMathDomain          = errors.New("math domain error")
	ErrMathRange           = errors.New("math range error")
	ErrFractionalPower     = errors.New("negative number cannot be raised to a fractional power")
	ErrArity               = errors.New("wrong number of arguments")
	ErrUnsupportedFunction = errors.New("unsupported function")
	ErrUndefinedName       = errors.New("undefined name")
	ErrOutputRef           = errors.New("unit output reference")
	ErrBadLiteral          = errors.New("bad numeric literal")
	ErrBadBlockHeader      = errors.New("bad block header")
	ErrNotConvertible      = errors.New("value cannot be converted to an integer")
	ErrBadStoreParam       = errors.New("bad scalar store param")
	ErrSimNotFound         = errors.New("simulation not found")
	ErrStoreClosed         = errors.New("scalar store is closed")
	ErrBadRow              = errors.New("bad scalar row encoding")
	ErrNoDecks             = errors.New("no deck files found")
)
