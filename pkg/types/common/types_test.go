package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	e := NewBaseEvent("patent.created", "agg-1")

	_, err := uuid.Parse(e.EventID())
	require.NoError(t, err)
	assert.Equal(t, "patent.created", e.EventType())
	assert.Equal(t, "agg-1", e.AggregateID())
	assert.False(t, e.OccurredAt().Before(before))
}

func TestBaseEvent_ImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = NewBaseEvent("x", "y")
}

func TestBaseEvent_JSON(t *testing.T) {
	e := NewBaseEvent("document.uploaded", "doc-9")
	b, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "document.uploaded", m["event_type"])
	assert.Equal(t, "doc-9", m["aggregate_id"])
	assert.Contains(t, m, "event_id")
	assert.Contains(t, m, "occurred_at")
}
