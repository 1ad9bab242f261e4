package gchint

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitwalk/internal/graph"
)

func TestVisitCollectsEveryN(t *testing.T) {
	h := New(3)
	var calls int
	var mu sync.Mutex
	h.gc = func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	c := &graph.Commit{ID: "c1", Parents: []string{"c0"}}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Visit(context.Background(), c)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, calls)
	assert.EqualValues(t, 10, h.Visits())
	assert.EqualValues(t, 3, h.Collections())
	h.Report()
}

func TestDisabled(t *testing.T) {
	h := New(0)
	h.gc = func() { t.Fatal("gc must not run") }
	h.Visit(context.Background(), &graph.Commit{ID: "c"})
	assert.False(t, h.Enabled())
	assert.Zero(t, h.Visits())

	var nilHint *Hint
	assert.False(t, nilHint.Enabled())
}
