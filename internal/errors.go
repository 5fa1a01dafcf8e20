package internal

import "errors"

var (
	// ErrInvalidConfiguration means a billing setup cannot be computed, e.g. a
	// custom cycle without a positive day count.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMissingDueDate is returned by the keep strategy when there is no due date to extend.
	ErrMissingDueDate = errors.New("missing due date")

	// ErrInvalidDate is returned for dates that do not exist on the calendar.
	ErrInvalidDate = errors.New("invalid date")

	ErrNotFound = errors.New("subscription not found")

	// ErrPermissionDenied is reported when the notification backend refuses to schedule.
	ErrPermissionDenied = errors.New("notification permission denied")
)
