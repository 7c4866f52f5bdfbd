package logging_test

import (
	"testing"

	"github.com/carpenike/rv-nixpi/logging"
	"github.com/stretchr/testify/assert"
)

func TestQueue_drainOrdersAndReportsDrops(t *testing.T) {
	q := logging.NewQueue(4)

	for _, line := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		_, err := q.Write([]byte(line + "\n"))
		assert.NoError(t, err)
	}

	got := q.Drain()
	assert.Equal(t, []string{"d", "e", "f", "g", "... 3 log messages dropped due to queue overflow ..."}, got)
}

func TestQueue_drainEmptiesQueue(t *testing.T) {
	q := logging.NewQueue(4)
	_, _ = q.Write([]byte("a"))

	first := q.Drain()
	assert.Equal(t, []string{"a"}, first)

	second := q.Drain()
	assert.Empty(t, second)
}

func TestQueue_noDropsMeansNoSyntheticRecord(t *testing.T) {
	q := logging.NewQueue(4)
	_, _ = q.Write([]byte("a"))
	_, _ = q.Write([]byte("b"))

	got := q.Drain()
	assert.Equal(t, []string{"a", "b"}, got)
}
