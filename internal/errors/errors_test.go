package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("post").Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("nope").Status)
	assert.Equal(t, http.StatusForbidden, Forbidden("nope").Status)
	assert.Equal(t, http.StatusConflict, Conflict("follow").Status)
	assert.Equal(t, http.StatusBadRequest, ValidationError("username", "too short").Status)
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad").Status)
	assert.Equal(t, http.StatusInternalServerError, InternalError("boom").Status)
	assert.Equal(t, http.StatusTooManyRequests, RateLimited("").Status)
}

func TestErrorString(t *testing.T) {
	err := ValidationError("username", "too short")
	assert.Equal(t, "VALIDATION_ERROR: too short (field: username)", err.Error())

	plain := NotFound("post")
	assert.Equal(t, "NOT_FOUND: post not found", plain.Error())
}

func TestStatusCodeFallback(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("UNKNOWN").StatusCode())
	assert.Equal(t, http.StatusNotFound, ErrNotFound.StatusCode())
}
