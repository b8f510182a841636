package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sumOf(rs ...int) (int64, int) {
	var s int64
	for _, r := range rs {
		s += int64(r)
	}
	return s, len(rs)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    Stats
	}{
		{name: "no reviews", ratings: nil, want: Stats{Avg: 0, Count: 0}},
		{name: "five and three", ratings: []int{5, 3}, want: Stats{Avg: 4.00, Count: 2}},
		{name: "five three four", ratings: []int{5, 3, 4}, want: Stats{Avg: 4.00, Count: 3}},
		{name: "rounded to two places", ratings: []int{5, 4, 4}, want: Stats{Avg: 4.33, Count: 3}},
		{name: "rounded up", ratings: []int{5, 5, 4}, want: Stats{Avg: 4.67, Count: 3}},
		{name: "single", ratings: []int{1}, want: Stats{Avg: 1, Count: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, count := sumOf(tt.ratings...)
			assert.Equal(t, tt.want, Aggregate(sum, count))
		})
	}
}

func TestValid(t *testing.T) {
	assert.False(t, Valid(0))
	assert.True(t, Valid(1))
	assert.True(t, Valid(5))
	assert.False(t, Valid(6))
}
