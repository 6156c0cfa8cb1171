package portal

import "errors"

var (
	ErrNotFound     = errors.New("portal: not found")
	ErrConflict     = errors.New("portal: resource conflict")
	ErrInvalidInput = errors.New("portal: invalid input")
)
