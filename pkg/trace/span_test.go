package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_Empty(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	assert.Nil(t, FromContext(nil))
}

func TestStartSpan_Nesting(t *testing.T) {
	ctx := context.Background()

	ctx, root := StartSpan(ctx, "handle_request")
	ctx, child := StartSpan(ctx, "apalis_job")

	assert.Equal(t, child, FromContext(ctx))
	assert.Equal(t, root, child.Parent)
	assert.Nil(t, root.Parent)
	assert.NotEqual(t, root.ID, child.ID)
}

func TestSpan_Root(t *testing.T) {
	ctx := context.Background()

	ctx, root := StartSpan(ctx, "a")
	ctx, _ = StartSpan(ctx, "b")
	_, leaf := StartSpan(ctx, "c")

	assert.Equal(t, root, leaf.Root())
	assert.Equal(t, root, root.Root())
}

func TestStartSpan_Options(t *testing.T) {
	_, s := StartSpan(context.Background(), "job-run",
		WithPersist(),
		WithJobID("job-42"),
		WithServiceName("billing"),
	)

	assert.True(t, s.Persist)
	assert.Equal(t, "job-42", s.JobID)
	assert.Equal(t, "billing", s.ServiceName)
}

func TestPersistRequested_NotInherited(t *testing.T) {
	ctx := context.Background()

	ctx, root := StartSpan(ctx, "parent", WithPersist())
	_, child := StartSpan(ctx, "child")

	// The flag stays on the span it was set on; the chain walk is what
	// makes nested events eligible.
	require.True(t, root.Persist)
	assert.False(t, child.Persist)
	assert.True(t, child.PersistRequested())
}

func TestPersistRequested_ChainWalk(t *testing.T) {
	ctx := context.Background()

	ctx, _ = StartSpan(ctx, "outer")
	ctx, mid := StartSpan(ctx, "mid", WithPersist())
	_, leaf := StartSpan(ctx, "leaf")

	assert.True(t, mid.PersistRequested())
	assert.True(t, leaf.PersistRequested())
}

func TestPersistRequested_NoMarkerAnywhere(t *testing.T) {
	ctx := context.Background()

	ctx, _ = StartSpan(ctx, "outer")
	_, leaf := StartSpan(ctx, "inner")

	assert.False(t, leaf.PersistRequested())
}
