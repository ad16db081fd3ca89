package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled}
	allowed := map[Status]map[Status]bool{
		StatusPending:   {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
		StatusApproved:  {StatusCompleted: true, StatusCancelled: true},
		StatusRejected:  {StatusCancelled: true},
		StatusCancelled: {StatusCancelled: true},
		StatusCompleted: {},
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestIsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusApproved.IsActive())
	assert.False(t, StatusRejected.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, StatusCancelled.IsActive())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("approved")
	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("APPROVED")
	assert.Error(t, err)
}

func TestNewPageMeta(t *testing.T) {
	m := NewPageMeta(25, 2, 10)
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasNextPage)
	assert.True(t, m.HasPreviousPage)

	m = NewPageMeta(0, 1, 10)
	assert.Equal(t, 0, m.TotalPages)
	assert.False(t, m.HasNextPage)
	assert.False(t, m.HasPreviousPage)
}
