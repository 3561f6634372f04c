package jobs

import "errors"

// ErrNotFound is returned when a job does not exist or belongs to a
// different owner. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("job not found")
