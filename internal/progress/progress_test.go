package progress

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	tr := Nop().Start("anything", 10)
	tr.Add(3)
	tr.Done()
}

func TestForFileNotTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	assert.Equal(t, Nop(), ForFile(f))
	assert.Equal(t, Nop(), ForFile(nil))
}

func TestCounterConcurrent(t *testing.T) {
	var c Counter
	tr := c.Start("phase", 100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tr.Add(1)
			}
		}()
	}
	wg.Wait()
	tr.Done()

	total, count, done := c.Snapshot()
	assert.Equal(t, 100, total)
	assert.Equal(t, 100, count)
	assert.True(t, done)
}
