package mark_test

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/leapmacro/pkg/mark"
	"github.com/stretchr/testify/assert"
)

func TestFreshMarksAreDistinct(t *testing.T) {
	g := mark.NewGlobals()
	a, b := g.Fresh(), g.Fresh()

	assert.NotEqual(t, a, b)
	assert.False(t, a.IsEmpty())
	assert.True(t, g.Owns(a))
	assert.False(t, g.Owns(mark.Empty))
}

func TestMarksFromDifferentSessionsNeverCollide(t *testing.T) {
	g1, g2 := mark.NewGlobals(), mark.NewGlobals()

	// same sequence number, different session
	a, b := g1.Fresh(), g2.Fresh()
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, g1.Session(), g2.Session())
	assert.False(t, g1.Owns(b))
	assert.False(t, g2.Owns(a))
}

func TestFreshIsSafeForConcurrentUse(t *testing.T) {
	g := mark.NewGlobals()
	const n = 64

	var mu sync.Mutex
	seen := make(map[mark.Mark]bool, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := g.Fresh()
			mu.Lock()
			seen[m] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestEmptyString(t *testing.T) {
	assert.Equal(t, "#empty", mark.Empty.String())
	assert.Contains(t, mark.NewGlobals().Fresh().String(), "#1@")
}
