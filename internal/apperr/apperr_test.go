package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("lookup: %w", NotFound("User not found"))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, KindOf(wrapped).Status())
	assert.Equal(t, http.StatusBadRequest, KindVerification.Status())
	assert.Equal(t, http.StatusUnprocessableEntity, KindValidation.Status())
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantAuth   bool
	}{
		{name: "conflict", err: Conflict("taken"), wantStatus: http.StatusConflict, wantMsg: "taken"},
		{name: "unauthorized", err: Unauthorized("nope"), wantStatus: http.StatusUnauthorized, wantMsg: "nope", wantAuth: true},
		{name: "internal hides cause", err: errors.New("dial tcp: refused"), wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "wrapped internal hides cause", err: Internal(errors.New("secret")), wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Set("requestID", "req-1")

			Respond(c, tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.Equal(t, "req-1", body["requestID"])

			if tt.wantAuth {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
