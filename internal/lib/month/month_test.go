package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{
			name:   "simple one month",
			start:  date(2025, time.March, 15),
			months: 1,
			want:   date(2025, time.April, 15),
		},
		{
			name:   "jan 31 clamps to feb 28",
			start:  date(2025, time.January, 31),
			months: 1,
			want:   date(2025, time.February, 28),
		},
		{
			name:   "jan 31 clamps to feb 29 in leap year",
			start:  date(2024, time.January, 31),
			months: 1,
			want:   date(2024, time.February, 29),
		},
		{
			name:   "march 31 clamps to april 30",
			start:  date(2025, time.March, 31),
			months: 1,
			want:   date(2025, time.April, 30),
		},
		{
			name:   "twelve months crosses year",
			start:  date(2025, time.June, 10),
			months: 12,
			want:   date(2026, time.June, 10),
		},
		{
			name:   "three months from end of november",
			start:  date(2025, time.November, 30),
			months: 3,
			want:   date(2026, time.February, 28),
		},
		{
			name:   "zero months is identity",
			start:  date(2025, time.May, 20),
			months: 0,
			want:   date(2025, time.May, 20),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Add(tt.start, tt.months)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestAdd_PreservesTimeOfDay(t *testing.T) {
	start := time.Date(2025, time.January, 31, 14, 30, 45, 0, time.UTC)
	got := Add(start, 1)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, 45, got.Second())
	assert.Equal(t, 28, got.Day())
}
