// Package apperr defines the error kinds the API can surface and how they
// are turned into HTTP responses
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindVerification
	KindBadRequest
)

// Error carries a client facing message. Err, when set, is the internal
// cause and is only ever logged.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}

	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

func Validation(msg string) *Error   { return New(KindValidation, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(KindForbidden, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func BadRequest(msg string) *Error   { return New(KindBadRequest, msg) }

// Internal wraps err so it is reported to the client as a generic 500.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "Internal server error", Err: err}
}

func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindVerification, KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// Respond aborts the request with the JSON body matching err
func Respond(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	var e *Error
	if !errors.As(err, &e) {
		e = Internal(err)
	}

	if e.Kind == KindInternal {
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
		e = Internal(nil)
	}

	if e.Kind == KindUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}

	c.AbortWithStatusJSON(e.Kind.Status(), gin.H{
		"error":     e.Msg,
		"requestID": requestID,
	})
}

// Fail logs err under msg with the request ID and answers with a generic 500
func Fail(c *gin.Context, msg string, err error) {
	requestID := c.GetString("requestID")

	zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})
}
