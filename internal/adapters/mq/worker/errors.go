package worker

import "errors"

// ErrNilEvent is returned for a job without an event.
var ErrNilEvent = errors.New("job has no event")
