package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatusNext(t *testing.T) {
	assert.Equal(t, RequestStatusInProgress, RequestStatusPending.Next())
	assert.Equal(t, RequestStatusDone, RequestStatusInProgress.Next())
	assert.Equal(t, RequestStatus(""), RequestStatusDone.Next())
	assert.Equal(t, RequestStatus(""), RequestStatus("cancelled").Next())
}
