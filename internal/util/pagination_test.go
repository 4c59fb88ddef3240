package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		page, size         int
		wantOffset, wantLm int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 10, 20, 10},
		{"zero page", 0, 10, 0, 10},
		{"default size", 2, 0, 20, 20},
		{"clamped size", 1, 500, 0, 100},
		{"huge page", math.MaxInt, 100, (MaxPage - 1) * 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			off, lim := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, off)
			assert.Equal(t, tt.wantLm, lim)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, ParseIntDefault("", 5))
	assert.Equal(t, 5, ParseIntDefault("x", 5))
	assert.Equal(t, 7, ParseIntDefault("7", 5))
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	p := NewPage(2, 10, 25)
	assert.Equal(t, int64(3), p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)

	last := NewPage(3, 10, 25)
	assert.False(t, last.HasNext)

	empty := NewPage(1, 10, 0)
	assert.Equal(t, int64(0), empty.TotalPages)
	assert.False(t, empty.HasPrev)
	assert.False(t, empty.HasNext)

	far := NewPage(math.MaxInt, 20, 5)
	assert.Equal(t, MaxPage, far.Page)
	assert.True(t, far.HasPrev)
	assert.False(t, far.HasNext)
}

func TestClampPage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ClampPage(-3))
	assert.Equal(t, 7, ClampPage(7))
	assert.Equal(t, MaxPage, ClampPage(math.MaxInt))
}
