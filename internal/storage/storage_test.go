package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientMessage(t *testing.T) {
	msg, ok := ClientMessage(fmt.Errorf("%w: UpdateStudentByID: %w", ErrStorage, errors.New("pq: password authentication failed")))
	assert.True(t, ok)
	assert.Equal(t, ErrStorage.Error(), msg)
	assert.NotContains(t, msg, "pq:")

	msg, ok = ClientMessage(ErrNotFound)
	assert.True(t, ok)
	assert.Equal(t, "student not found", msg)

	msg, ok = ClientMessage(fmt.Errorf("update: %w", ErrNoFieldsProvided))
	assert.True(t, ok)
	assert.Equal(t, ErrNoFieldsProvided.Error(), msg)

	_, ok = ClientMessage(errors.New("boom"))
	assert.False(t, ok)
}
