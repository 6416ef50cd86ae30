package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockAdvance(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	m := NewMock(start)

	assert.Equal(t, start, m.Now())

	m.Advance(36 * time.Hour)
	assert.Equal(t, start.Add(36*time.Hour), m.Now())

	later := time.Date(2025, 4, 1, 0, 0, 0, 0, time.FixedZone("WAT", 3600))
	m.Set(later)
	assert.Equal(t, time.UTC, m.Now().Location())
	assert.True(t, later.Equal(m.Now()))
}

func TestSystemIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, System{}.Now().Location())
}
