package optable

import "errors"

var errDivisionByZero = errors.New("division by zero")
