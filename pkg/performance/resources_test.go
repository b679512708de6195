package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sink [][]byte

func TestResourceMonitor_Usage(t *testing.T) {
	rm, err := NewResourceMonitor()
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		sink = append(sink, make([]byte, 1024))
	}
	time.Sleep(5 * time.Millisecond)

	u := rm.Usage()
	assert.Greater(t, u.Elapsed, time.Duration(0))
	assert.GreaterOrEqual(t, u.TotalAlloc, uint64(100*1024))
	assert.Greater(t, u.HeapAlloc, uint64(0))
	assert.Greater(t, u.GoroutineCount, 0)
	assert.GreaterOrEqual(t, u.CPUPercent, 0.0)
}

func TestResourceMonitor_Reset(t *testing.T) {
	rm, err := NewResourceMonitor()
	require.NoError(t, err)

	sink = append(sink, make([]byte, 1<<20))
	before := rm.Usage().TotalAlloc

	rm.Reset()
	after := rm.Usage().TotalAlloc
	assert.Less(t, after, before)
}
