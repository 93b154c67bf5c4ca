package domain

import "errors"

// Domain errors
var (
	ErrDuplicateScore = errors.New("score already submitted for this game and date")
	ErrScoreNotFound  = errors.New("score not found")
	ErrNoScoresFound  = errors.New("could not parse any game scores from the text")
	ErrFutureDate     = errors.New("play date is in the future")
	ErrUnknownGame    = errors.New("unknown game")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal server error")
)

// IsUserError checks if an error should be reported as a client-side problem
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoScoresFound) ||
		errors.Is(err, ErrFutureDate) ||
		errors.Is(err, ErrUnknownGame) ||
		errors.Is(err, ErrInvalidRequest)
}
