package shell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/shell"
)

func TestSlide(t *testing.T) {
	t.Parallel()

	s := shell.New(nil)
	assert.Equal(t, shell.State{Pane: shell.PaneMain}, s.State())
	assert.False(t, s.Reopen())

	s.SlideToRight(shell.CodeScrape, "row-7")
	assert.Equal(t, shell.State{Pane: shell.PaneRight, Code: shell.CodeScrape, Payload: "row-7"}, s.State())

	s.SlideToLeft()
	assert.Equal(t, shell.State{Pane: shell.PaneMain, Code: shell.CodeScrape, Payload: "row-7"}, s.State())

	require.True(t, s.Reopen())
	assert.Equal(t, shell.PaneRight, s.State().Pane)
	assert.Equal(t, "row-7", s.State().Payload)
}

func TestMount_ArrowBindings(t *testing.T) {
	t.Parallel()

	keys := shell.NewKeymap()
	s := shell.New(keys)
	unmount := s.Mount()

	s.SlideToRight(shell.CodeQueue, nil)
	require.True(t, keys.Dispatch(shell.KeyLeft))
	assert.Equal(t, shell.PaneMain, s.State().Pane)

	require.True(t, keys.Dispatch(shell.KeyRight))
	assert.Equal(t, shell.State{Pane: shell.PaneRight, Code: shell.CodeQueue}, s.State())

	unmount()
	unmount()
	assert.Zero(t, keys.Bound(shell.KeyLeft))
	assert.Zero(t, keys.Bound(shell.KeyRight))
	assert.False(t, keys.Dispatch(shell.KeyLeft))
	assert.Equal(t, shell.PaneRight, s.State().Pane)
}

func TestKeymap_UnbindOnlyOwnHandler(t *testing.T) {
	t.Parallel()

	keys := shell.NewKeymap()
	var calls []string
	unbindA := keys.Bind(shell.KeyRight, func() { calls = append(calls, "a") })
	keys.Bind(shell.KeyRight, func() { calls = append(calls, "b") })

	keys.Dispatch(shell.KeyRight)
	unbindA()
	keys.Dispatch(shell.KeyRight)

	assert.Equal(t, []string{"a", "b", "b"}, calls)
}

func TestOnChange(t *testing.T) {
	t.Parallel()

	s := shell.New(nil)
	var got []shell.State
	s.OnChange(func(st shell.State) { got = append(got, st) })

	s.SlideToRight(shell.CodeSearch, nil)
	s.SlideToLeft()
	s.SlideToLeft()

	require.Len(t, got, 2)
	assert.Equal(t, shell.PaneRight, got[0].Pane)
	assert.Equal(t, shell.PaneMain, got[1].Pane)
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want shell.Key
		ok   bool
	}{
		{"\x1b[C", shell.KeyRight, true},
		{"\x1b[D", shell.KeyLeft, true},
		{"right", shell.KeyRight, true},
		{" LEFT ", shell.KeyLeft, true},
		{"→", shell.KeyRight, true},
		{"list", "", false},
	}
	for _, tt := range tests {
		got, ok := shell.ParseKey(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
