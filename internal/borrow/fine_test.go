// AngelaMos | 2026
// fine_test.go

package borrow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFine(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rate := 10.0

	tests := []struct {
		name     string
		returned time.Time
		want     float64
	}{
		{
			name:     "returned early",
			returned: due.Add(-48 * time.Hour),
			want:     0,
		},
		{
			name:     "returned exactly on due date",
			returned: due,
			want:     0,
		},
		{
			name:     "a few hours late rounds down to zero",
			returned: due.Add(23 * time.Hour),
			want:     0,
		},
		{
			name:     "one full day late",
			returned: due.Add(24 * time.Hour),
			want:     10,
		},
		{
			name:     "one and a half days late rounds down",
			returned: due.Add(36 * time.Hour),
			want:     10,
		},
		{
			name:     "three days late",
			returned: due.Add(72 * time.Hour),
			want:     30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateFine(due, tt.returned, rate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateFineZeroRate(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	got := CalculateFine(due, due.Add(5*24*time.Hour), 0)
	assert.Equal(t, 0.0, got)
}
