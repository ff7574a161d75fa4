// Package matching holds the list utilities behind session search: time-range
// filtering and grade-based tutor ordering.
package matching

import "strconv"

// GradeValue parses a transcript grade as a number. Letter grades and missing
// entries count as 0 so a tutor is never excluded from a sort.
func GradeValue(grade string) float64 {
	v, err := strconv.ParseFloat(grade, 64)
	if err != nil {
		return 0
	}
	return v
}
