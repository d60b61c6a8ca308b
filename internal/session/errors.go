package session

import "errors"

var (
	// ErrExerciseNotFound means the requested name is not in the catalog.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrProcessorUnavailable means the exercise exists but cannot be analyzed.
	ErrProcessorUnavailable = errors.New("no real-time processor for exercise")
	// ErrProcessingFault wraps a recovered panic from a processor.
	ErrProcessingFault = errors.New("processing fault")
	// ErrNoSession means the connection has no active session.
	ErrNoSession = errors.New("no active session")
	// ErrSessionActive is returned by Start under RestartReject.
	ErrSessionActive = errors.New("session already active")
)
