package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/funding", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/funding", "GET", 200, 30*time.Millisecond)
	m.RecordError("/profile", "GET", "UNAUTHORIZED")
	m.RecordEvent("donation_recorded", true)
	m.RecordEvent("donation_recorded", false)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/funding|GET|200"])
	assert.Equal(t, int64(20), snap.AvgMillis["/funding|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/profile|GET|UNAUTHORIZED"])
	assert.Equal(t, int64(1), snap.Events["donation_recorded|ok"])
	assert.Equal(t, int64(1), snap.Events["donation_recorded|failed"])
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
