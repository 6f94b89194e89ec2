package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadChoreography_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadChoreography(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadInstance_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadInstance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadInstance_Fields(t *testing.T) {
	s := createTestStore(t)
	inst := runDelivery(t, s, "run-1", order)

	rec, err := s.ReadInstance(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, inst.Choreography, rec.Choreography)
	assert.Equal(t, "delivery run", rec.Label)
	assert.Equal(t, "receive", rec.Render)
	assert.True(t, rec.Running)
	assert.False(t, rec.Ended)
	assert.True(t, rec.StoppedAt.IsZero())
}

func TestReadEvents_Empty(t *testing.T) {
	s := createTestStore(t)
	runDelivery(t, s, "run-1")

	events, err := s.ReadEvents(context.Background(), "run-1", Output)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestListInstances_Ordered(t *testing.T) {
	s := createTestStore(t)
	runDelivery(t, s, "run-2", order)
	runDelivery(t, s, "run-1")
	runDelivery(t, s, "run-3", order, handover, deliver)

	recs, err := s.ListInstances(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "run-1", recs[0].ID)
	assert.Equal(t, "run-2", recs[1].ID)
	assert.Equal(t, "run-3", recs[2].ID)
	assert.True(t, recs[2].Ended)
}
