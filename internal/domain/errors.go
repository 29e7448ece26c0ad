package domain

import "errors"

var (
	// ErrUnknownCategory is returned when a category name is not part of the exam syllabus.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidQuestion indicates a question record violates the bank invariants.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrDuplicateQuestion indicates two questions share an ID.
	ErrDuplicateQuestion = errors.New("duplicate question id")
	// ErrEmptyPool is returned when there is nothing to ask.
	ErrEmptyPool = errors.New("question pool is empty")

	// ErrChoiceOutOfRange is returned when a selected index is not one of the four choices.
	ErrChoiceOutOfRange = errors.New("choice index out of range")
	// ErrAlreadyAnswered is returned when the current question was already answered.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered is returned when advancing past an unanswered question.
	ErrNotAnswered = errors.New("current question not answered")
	// ErrInvalidTransition is returned for events the current phase does not accept.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrSessionNotFinished is returned when asking an unfinished session for its attempt.
	ErrSessionNotFinished = errors.New("session not finished")
	// ErrSessionNotFound is returned when a parked session does not exist (or expired).
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionOwner is returned when a user drives a session someone else started.
	ErrSessionOwner = errors.New("session belongs to another user")

	// ErrUserNotFound is the explicit not-found signal of the user lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrStorageUnavailable is returned when no storage is configured.
	ErrStorageUnavailable = errors.New("storage not configured")
	// ErrInvalidResult indicates a per-category result record is inconsistent.
	ErrInvalidResult = errors.New("invalid result")
)
