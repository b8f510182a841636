// Package rating содержит арифметику агрегированного рейтинга техника.
package rating

import "math"

// MinRating и MaxRating задают допустимые границы оценки отзыва.
const (
	MinRating = 1
	MaxRating = 5
)

// Stats агрегат по отзывам одного техника.
type Stats struct {
	Avg   float64 `json:"rating_avg"`
	Count int     `json:"rating_count"`
}

// Valid сообщает, входит ли оценка в диапазон [1,5].
func Valid(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Aggregate считает среднее по сумме и количеству оценок,
// округлённое до двух знаков. Для count == 0 возвращает нулевой агрегат.
func Aggregate(sum int64, count int) Stats {
	if count <= 0 {
		return Stats{}
	}
	return Stats{
		Avg:   Round2(float64(sum) / float64(count)),
		Count: count,
	}
}

// Round2 округляет значение до двух знаков после запятой.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
