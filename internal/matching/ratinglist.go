package matching

import (
	"sort"

	"github.com/skolard/skolard-api/internal/models"
	"github.com/skolard/skolard-api/pkg/plist"
)

// RatingList is an ordered tutor collection supporting grade-based sorting.
type RatingList struct {
	*plist.List[*models.Tutor]
}

// NewRatingList builds a RatingList from a defensive copy of the tutors.
func NewRatingList(tutors []*models.Tutor) *RatingList {
	return &RatingList{List: plist.NewFrom(tutors)}
}

// SortByBestCourseRating orders the tutors descending by their numeric grade
// for the course. Non-numeric or missing grades count as 0 and keep the
// tutor in the result. Ties keep their original relative order.
//
// An empty list yields nil rather than an empty slice; callers depend on
// the distinction.
func (l *RatingList) SortByBestCourseRating(course string) []*models.Tutor {
	if l.IsEmpty() {
		return nil
	}
	out := l.Items()
	sort.SliceStable(out, func(i, j int) bool {
		return GradeValue(out[i].GradeForCourse(course)) > GradeValue(out[j].GradeForCourse(course))
	})
	return out
}
