package league

import "errors"

// Season errors. Callers wrap these with detail and test them with errors.Is.
var (
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrAlreadyExists      = errors.New("already exists")
	ErrAlreadyCompleted   = errors.New("fixture already completed")
	ErrWeekIncomplete     = errors.New("week has incomplete fixtures")
	ErrInvalidRoster      = errors.New("invalid roster")
	ErrDataUnavailable    = errors.New("data unavailable")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTeamCount   = errors.New("invalid team count")
	ErrInvalidWeeks       = errors.New("invalid week count")
)
