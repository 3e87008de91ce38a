package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCeilDays(t *testing.T) {
	assert.Equal(t, 1, CeilDays(Day/10))
	assert.Equal(t, 7, CeilDays(7*Day))
	assert.Equal(t, 8, CeilDays(7*Day+time.Second))
	assert.Equal(t, 0, CeilDays(0))
	assert.Equal(t, 0, CeilDays(-Day/2))
	assert.Equal(t, -1, CeilDays(-Day-Day/2))
}

func TestDaysUntil(t *testing.T) {
	now := Date(2025, 2, 22)
	assert.Equal(t, 6, DaysUntil(now, Date(2025, 2, 28)))
	assert.Equal(t, 1, DaysUntil(now.Add(20*time.Hour), Date(2025, 2, 23)))
}

func TestBetween(t *testing.T) {
	from := Date(2025, 1, 13)
	to := Date(2025, 2, 28)

	assert.True(t, Between(from, from, to))
	assert.True(t, Between(to, from, to))
	assert.False(t, Between(to.Add(time.Nanosecond), from, to))
}
