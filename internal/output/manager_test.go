package output

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	writes   []any
	writeErr error
	closeErr error
}

func (s *recordingSink) Write(v any) error {
	s.writes = append(s.writes, v)
	return s.writeErr
}

func (s *recordingSink) Close() error {
	return s.closeErr
}

func TestManager(t *testing.T) {
	t.Run("writes to all sinks", func(t *testing.T) {
		a, b := &recordingSink{}, &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(a))
		require.NoError(t, mgr.AddSink(b))

		require.NoError(t, mgr.Write("v1"))
		mgr.Report(Finding{Message: "v2"})
		require.NoError(t, mgr.Close())

		want := []any{"v1", Finding{Message: "v2"}}
		assert.Equal(t, want, a.writes)
		assert.Equal(t, want, b.writes)
	})

	t.Run("keeps writing after a sink fails and joins errors", func(t *testing.T) {
		a := &recordingSink{writeErr: errors.New("a-write"), closeErr: errors.New("a-close")}
		b := &recordingSink{}
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(a))
		require.NoError(t, mgr.AddSink(b))

		err := mgr.Write("v")
		assert.ErrorContains(t, err, "a-write")
		assert.Len(t, b.writes, 1)

		err = mgr.Close()
		assert.ErrorContains(t, err, "a-close")
	})

	t.Run("report routes failures to OnError", func(t *testing.T) {
		mgr := NewManager()
		require.NoError(t, mgr.AddSink(&recordingSink{writeErr: errors.New("stdout closed")}))

		var got error
		mgr.OnError(func(err error) { got = err })
		mgr.Report(Finding{Message: "x"})
		assert.ErrorContains(t, got, "stdout closed")
	})

	t.Run("rejects nil sink and nil manager", func(t *testing.T) {
		assert.Error(t, NewManager().AddSink(nil))

		var mgr *Manager
		assert.Error(t, mgr.Write("x"))
		assert.Error(t, mgr.Close())
		mgr.Report(Finding{})
	})
}
