package searchspec

import (
	"github.com/pkg/errors"
)

// ErrNotFound is returned when an entity looked up by id does not exist.
var ErrNotFound = errors.New("not found")

// DataAccessError is a failure of the data source while executing an otherwise valid search.
type DataAccessError struct {
	Err error
}

func (e *DataAccessError) Error() string {
	return "data access: " + e.Err.Error()
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// WrapDataAccess wraps err as a DataAccessError with message, or returns nil.
func WrapDataAccess(err error, message string) error {
	if err == nil {
		return nil
	}
	return &DataAccessError{Err: errors.Wrap(err, message)}
}

// IsDataAccessError reports whether err is or wraps a DataAccessError.
func IsDataAccessError(err error) bool {
	var de *DataAccessError
	return errors.As(err, &de)
}
