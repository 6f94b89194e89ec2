package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/choreo/internal/engine"
	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/testutil"
)

const (
	order    = "Pizza_Place?pizza_order"
	handover = "Delivery_Boy?Message_1mi4idx"
	deliver  = "Customer?pizza"
)

func TestWriteChoreography_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, def := range []*ir.Choreography{
		testutil.MinimalChoreography(),
		testutil.DeliveryChoreography(),
		testutil.NestedChoreography(),
	} {
		t.Run(def.Name, func(t *testing.T) {
			hash, err := s.WriteChoreography(ctx, def)
			require.NoError(t, err)
			assert.Equal(t, ir.MustChoreographyHash(def), hash)

			got, err := s.ReadChoreography(ctx, hash)
			require.NoError(t, err)
			assert.Equal(t, hash, ir.MustChoreographyHash(got))
			assert.Equal(t, def.Nodes, got.Nodes)
		})
	}
}

func TestWriteChoreography_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	def := testutil.SimpleChoreography()

	h1, err := s.WriteChoreography(ctx, def)
	require.NoError(t, err)
	h2, err := s.WriteChoreography(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM choreographies").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSaveInstance_RequiresChoreography(t *testing.T) {
	s := createTestStore(t)
	inst := runDelivery(t, createTestStore(t), "run-1", order)

	err := s.SaveInstance(context.Background(), inst, InstanceOptions{})
	assert.Error(t, err, "foreign key on choreography_hash")
}

func TestSaveInstance_Resave(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	inst := runDelivery(t, s, "run-1", handover)

	_, err := inst.Feed(order)
	require.NoError(t, err)
	require.NoError(t, inst.Stop())
	require.NoError(t, s.SaveInstance(ctx, inst, InstanceOptions{Render: "receive"}))

	inputs, err := s.ReadEvents(ctx, "run-1", Input)
	require.NoError(t, err)
	assert.Equal(t, []string{handover, order}, inputs)

	outputs, err := s.ReadEvents(ctx, "run-1", Output)
	require.NoError(t, err)
	assert.Equal(t, []string{order, handover}, outputs)

	history, err := s.ReadHistory(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, inst.Enforcer().History(), history)

	rec, err := s.ReadInstance(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, rec.Running)
	assert.Equal(t, testutil.Epoch, rec.StartedAt)
	assert.Equal(t, inst.StoppedAt, rec.StoppedAt)
}

func TestAppendEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	runDelivery(t, s, "run-1", order)

	require.NoError(t, s.AppendEvents(ctx, "run-1", Input, []string{handover, deliver}))

	inputs, err := s.ReadEvents(ctx, "run-1", Input)
	require.NoError(t, err)
	assert.Equal(t, []string{order, handover, deliver}, inputs)

	err = s.AppendEvents(ctx, "ghost", Input, []string{order})
	assert.Error(t, err, "events need an instance")
}

func TestWriteHistory_KeepsRecordedEntries(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	inst := runDelivery(t, s, "run-1", order)

	before, err := s.ReadHistory(ctx, "run-1")
	require.NoError(t, err)

	// Re-saving with more history only appends.
	_, err = inst.Feed(handover)
	require.NoError(t, err)
	require.NoError(t, s.SaveInstance(ctx, inst, InstanceOptions{Render: "receive"}))

	after, err := s.ReadHistory(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, before, after[:len(before)])
	assert.Len(t, after, len(inst.Enforcer().History()))
	assert.Equal(t, engine.HistoryStart, after[0].Kind)
}
