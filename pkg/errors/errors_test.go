package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	clone := Clone(ErrFixedEntry, "session s-1 is fixed")

	assert.Equal(t, "session s-1 is fixed", clone.Message)
	assert.Equal(t, http.StatusConflict, clone.Status)
	assert.ErrorIs(t, clone, ErrFixedEntry)
	assert.NotErrorIs(t, clone, ErrConflict)
	assert.Equal(t, "fixed sessions cannot be moved or removed", ErrFixedEntry.Message)
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("save timetable: %w", Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed to persist"))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "failed to persist: dial tcp: refused", FromError(err).Error())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	ref := Clone(ErrInvalidReference, "unknown room r-9")
	assert.Same(t, ref, FromError(ref))
}
