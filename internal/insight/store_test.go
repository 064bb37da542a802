package insight

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_empty(t *testing.T) {
	s := NewStore()
	assert.Equal(t, "No business insights have been discovered yet.", s.Render())
	assert.Zero(t, s.Len())
}

func TestRender_twoInsights(t *testing.T) {
	s := NewStore()
	s.Append("Sales grew 10%")
	s.Append("New customers are trending up")

	memo := s.Render()
	lines := strings.Split(memo, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Analysis has revealed 2 key business insights that suggest strategic opportunities for growth, optimization, and competitive advantage:", lines[0])
	assert.Equal(t, "- Sales grew 10%", lines[1])
	assert.Equal(t, "- New customers are trending up", lines[2])
}

func TestRender_keepsDuplicatesInOrder(t *testing.T) {
	s := NewStore()
	for _, in := range []string{"B", "A", "B"} {
		s.Append(in)
	}
	assert.Equal(t, []string{"B", "A", "B"}, s.All())
	assert.Contains(t, s.Render(), "revealed 3 key business insights")
	assert.True(t, strings.HasSuffix(s.Render(), "- B\n- A\n- B"))
}

func TestAll_returnsCopy(t *testing.T) {
	s := NewStore()
	s.Append("X")
	got := s.All()
	got[0] = "mutated"
	assert.Equal(t, []string{"X"}, s.All())
}

func TestAppend_concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append("insight")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
