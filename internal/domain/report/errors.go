package report

import "errors"

var (
	ErrInvalidStatus     = errors.New("invalid report status")
	ErrIllegalTransition = errors.New("illegal status transition")

	ErrDescriptionRequired = errors.New("description is required")
)
