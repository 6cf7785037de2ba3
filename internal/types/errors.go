package types

import "errors"

// Error kinds. Components wrap causes with one of these so callers can use errors.Is.
var (
	ErrInvalidJob     = errors.New("invalid job")
	ErrConfiguration  = errors.New("configuration error")
	ErrDecode         = errors.New("audio decode error")
	ErrTranscription  = errors.New("transcription error")
	ErrEmptyInput     = errors.New("empty input")
	ErrAnalysis       = errors.New("analysis error")
	ErrIO             = errors.New("report io error")
	ErrAuthentication = errors.New("mail authentication error")
	ErrDelivery       = errors.New("mail delivery error")
)
