package stampbook

import "errors"

// ErrDuplicate is returned when the collection already holds the timestamp string.
var ErrDuplicate = errors.New("timestamp already recorded")

// ErrIndexOutOfRange indicates the caller referenced a position outside the collection.
var ErrIndexOutOfRange = errors.New("entry index out of range")

// ErrMalformedLine marks a persisted line that could not be turned into an entry.
var ErrMalformedLine = errors.New("malformed line")
