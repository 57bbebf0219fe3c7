package report

import (
	"errors"
	"fmt"

	"nrjtrack/internal/core"
)

var (
	// ErrNoData means the store holds no usable reading.
	ErrNoData = errors.New("no data available, please enter at least one reading")

	ErrInvalidRange = errors.New("invalid date range")
	ErrUnknownField = errors.New("unknown field")
)

// InvalidRangeError reports a start date after the end date once both
// bounds have been resolved against the available data.
type InvalidRangeError struct {
	Start core.Date
	End   core.Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: start_date %s is after end_date %s", e.Start, e.End)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// UnknownFieldError reports a data_type that is not a configured numeric field.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("data type '%s' not found", e.Field)
}

func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}
