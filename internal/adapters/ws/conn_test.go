package ws

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/knmori/lobby/internal/core"
)

func TestWSConn_TrySendBackpressure(t *testing.T) {
	t.Parallel()

	c := newWSConn(nil, 1)
	require.NoError(t, c.TrySend(core.Frame("one")))
	// Buffer full and nobody draining: drop, don't block.
	require.ErrorIs(t, c.TrySend(core.Frame("two")), ErrBackpressure)

	got := <-c.send
	require.Equal(t, core.Frame("one"), got)
}
