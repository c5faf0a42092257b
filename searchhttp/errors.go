package searchhttp

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/theplant/searchspec"
	"github.com/theplant/searchspec/filter"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	StatusCode    int       `json:"status_code"`
	Timestamp     time.Time `json:"timestamp"`
	Message       string    `json:"message"`
	Description   string    `json:"description"`
	ExceptionName string    `json:"exception_name"`
}

// StatusOf maps err to its HTTP status: filter errors are 400, missing entities 404,
// anything else 500.
func StatusOf(err error) int {
	switch {
	case filter.IsFilterError(err):
		return http.StatusBadRequest
	case errors.Is(err, searchspec.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func exceptionName(err error) string {
	if kind, ok := filter.KindOf(err); ok {
		return string(kind)
	}
	switch {
	case errors.Is(err, searchspec.ErrNotFound):
		return "NotFound"
	case searchspec.IsDataAccessError(err):
		return "DataAccessError"
	}
	return "InternalError"
}

func abortWithError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status := StatusOf(err)
	body := &ErrorBody{
		StatusCode:    status,
		Timestamp:     time.Now().UTC(),
		Message:       err.Error(),
		Description:   "uri=" + c.Request.URL.Path,
		ExceptionName: exceptionName(err),
	}

	entry := logger.WithError(err).WithField("request_id", RequestIDFrom(c))
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
		// database details stay in the log
		body.Message = http.StatusText(status)
	} else {
		entry.Info("request rejected")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func invalidRequest(err error, format string, args ...any) error {
	return &filter.FilterError{Kind: filter.ErrInvalidRequest, Err: errors.Wrapf(err, format, args...)}
}
