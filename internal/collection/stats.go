package collection

import "math"

// Stats summarizes a user's gallery.
type Stats struct {
	TotalCards int     `json:"totalCards"`
	PSA10Count int     `json:"psa10Count"`
	AvgGrade   float64 `json:"avgGrade"`
}

// ComputeStats derives the gallery aggregates from the entries' grades.
// The mean is rounded to one decimal place; an empty gallery reports zeros.
func ComputeStats(grades []float64) Stats {
	s := Stats{TotalCards: len(grades)}
	if len(grades) == 0 {
		return s
	}

	var sum float64
	for _, g := range grades {
		sum += g
		if g == 10 {
			s.PSA10Count++
		}
	}
	s.AvgGrade = math.Round(sum/float64(len(grades))*10) / 10
	return s
}
