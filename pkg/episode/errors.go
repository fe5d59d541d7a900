package episode

import "errors"

var (
	// ErrNoMatch means the string carried no recognizable episode
	// numbering.
	ErrNoMatch = errors.New("episode: no pattern matched")

	// ErrInvalidMultiEpisode means a multi-part range was malformed,
	// e.g. parts spanning different seasons or a non-ascending range.
	ErrInvalidMultiEpisode = errors.New("episode: invalid multi-part range")

	// ErrMissingParameter means a required identity field was absent.
	ErrMissingParameter = errors.New("episode: missing parameter")
)
