package survey

import "errors"

var (
	// ErrMalformedSchema reports a schema that cannot be parsed or accepted.
	ErrMalformedSchema = errors.New("survey: malformed schema")
	// ErrUnknownQuestion is returned when a value targets an undefined question.
	ErrUnknownQuestion = errors.New("survey: unknown question")
	// ErrReadOnly is returned when a user edit reaches a read-only model or question.
	ErrReadOnly = errors.New("survey: read-only")
	// ErrInvalidMode reports a mode other than edit or display.
	ErrInvalidMode = errors.New("survey: invalid mode")
	// ErrInvalidLocale reports a locale tag that does not parse as BCP 47.
	ErrInvalidLocale = errors.New("survey: invalid locale")
)
