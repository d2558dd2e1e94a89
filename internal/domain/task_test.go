package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_Valid(t *testing.T) {
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled} {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []TaskStatus{"", "pending", "DONE"} {
		assert.False(t, s.Valid(), s)
	}
}
