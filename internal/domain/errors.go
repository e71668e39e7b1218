package domain

import "errors"

var (
	// ErrAlreadyConnected is returned when a gateway is asked to join a
	// second match over the same connection.
	ErrAlreadyConnected = errors.New("gateway already connected to another match")
	// ErrNotConnected is returned when sending before Connect succeeded.
	ErrNotConnected = errors.New("gateway not connected")
	// ErrUnsupportedQuestion indicates a question type this client cannot render.
	ErrUnsupportedQuestion = errors.New("unsupported question type")
	// ErrNoAnswer indicates input that does not yield a submittable payload.
	ErrNoAnswer = errors.New("no answer given")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrRoomNotFound is returned when a match room has not been opened.
	ErrRoomNotFound = errors.New("match room not found")
	// ErrUnauthorized is returned by REST calls rejected for a bad token.
	ErrUnauthorized = errors.New("unauthorized")
)
