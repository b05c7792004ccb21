package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

func TestSelection_KeepsFirstSelectionOrder(t *testing.T) {
	t.Parallel()

	s := domain.NewSelection[int]()
	s.Set("c", 3)
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 30)

	assert.Equal(t, []int{30, 1, 2}, s.Items())
	assert.Equal(t, 3, s.Len())

	s.Delete("a")
	s.Delete("missing")
	assert.Equal(t, []int{30, 2}, s.Items())
	assert.False(t, s.Has("a"))

	s.Set("a", 10)
	assert.Equal(t, []int{30, 2, 10}, s.Items())

	got, ok := s.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}
