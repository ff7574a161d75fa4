package models

// CourseGrade records the grade a tutor earned in a course they offer.
type CourseGrade struct {
	TutorEmail string `db:"tutor_email" json:"-"`
	CourseName string `db:"course_name" json:"course_name"`
	Grade      string `db:"grade" json:"grade"`
}

// Tutor is a user in the tutor role together with the courses they took.
// Grades are stored as the raw transcript strings ("4.5", "A+", ...); only
// numeric grades participate in rating sorts.
type Tutor struct {
	User
	Courses map[string]string `json:"courses"`
}

// GradeForCourse returns the tutor's recorded grade for a course, or the
// empty string when the tutor never took it.
func (t *Tutor) GradeForCourse(course string) string {
	if t == nil || t.Courses == nil {
		return ""
	}
	return t.Courses[NormalizeCourse(course)]
}
