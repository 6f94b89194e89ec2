package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/choreo/internal/compiler"
	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/testutil"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// runDelivery stores the delivery choreography and an instance that has
// consumed events, rendering tasks as receive events.
func runDelivery(t *testing.T, s *Store, id string, events ...string) *engine.Instance {
	t.Helper()
	ctx := context.Background()
	def := testutil.DeliveryChoreography()

	hash, err := s.WriteChoreography(ctx, def)
	require.NoError(t, err)

	c, err := compiler.Compile(def, compiler.REIOptions{Render: compiler.RenderReceive})
	require.NoError(t, err)

	clock := testutil.NewStepClock()
	inst, err := engine.NewInstance(id, "delivery run", hash, c.NFA, engine.Config{Now: clock.Now})
	require.NoError(t, err)
	require.NoError(t, inst.Start())
	for _, ev := range events {
		_, err := inst.Feed(ev)
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveInstance(ctx, inst, InstanceOptions{Render: "receive"}))
	return inst
}
