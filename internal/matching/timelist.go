package matching

import (
	"time"

	"github.com/skolard/skolard-api/internal/models"
	"github.com/skolard/skolard-api/pkg/plist"
)

// TimeList is an ordered session collection supporting time-range narrowing.
type TimeList struct {
	*plist.List[*models.Session]
}

// NewTimeList builds a TimeList from a defensive copy of the sessions.
func NewTimeList(sessions []*models.Session) *TimeList {
	return &TimeList{List: plist.NewFrom(sessions)}
}

// FilterByStudentRange returns the sessions fully contained in [start,end].
// A session starting exactly at start or ending exactly at end qualifies.
// The receiver is left untouched.
func (l *TimeList) FilterByStudentRange(start, end time.Time) []*models.Session {
	out := make([]*models.Session, 0, l.Len())
	for _, s := range l.Items() {
		if s.WithinRange(start, end) {
			out = append(out, s)
		}
	}
	return out
}
