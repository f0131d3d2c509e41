package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no attempt record matches the request.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidGrade indicates a grade outside the recognized set.
	ErrInvalidGrade = errors.New("invalid grade")
	// ErrQuestionsNotFound indicates no question list exists for a grade.
	ErrQuestionsNotFound = errors.New("questions not found")
	// ErrNoSelection is returned when submitting without a selected option.
	ErrNoSelection = errors.New("no option selected")
	// ErrInvalidOption indicates an option index outside the question's options.
	ErrInvalidOption = errors.New("option not found")
	// ErrAlreadyLocked is returned when the current question was already submitted.
	ErrAlreadyLocked = errors.New("question already locked")
	// ErrSessionCompleted is returned for any mutation after completion.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrInvalidTransition is returned when an action is not allowed in the current phase.
	ErrInvalidTransition = errors.New("action not allowed in current phase")
	// ErrSessionNotCompleted is returned when results are requested too early.
	ErrSessionNotCompleted = errors.New("quiz session not completed")
	// ErrProfileRequired is returned when a request carries no profile id.
	ErrProfileRequired = errors.New("profile id required")
)
