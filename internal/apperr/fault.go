package apperr

import "fmt"

// Fault is an internal invariant breach (e.g. a negative balance was
// observed). It is raised with panic and must never be returned to end users
// as a business error.
type Fault struct {
	Message string
}

func (f *Fault) Error() string {
	return "internal fault: " + f.Message
}

func Panicf(format string, args ...interface{}) {
	panic(&Fault{Message: fmt.Sprintf(format, args...)})
}
