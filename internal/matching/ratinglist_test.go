package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolard/skolard-api/internal/models"
)

func tutorWithGrade(email, course, grade string) *models.Tutor {
	return &models.Tutor{
		User:    models.User{Email: email, Role: models.RoleTutor},
		Courses: map[string]string{models.NormalizeCourse(course): grade},
	}
}

func TestGradeValue(t *testing.T) {
	assert.Equal(t, 4.5, GradeValue("4.5"))
	assert.Equal(t, 0.0, GradeValue("A+"))
	assert.Equal(t, 0.0, GradeValue(""))
}

func TestRatingListSortsDescendingWithNonNumericAsZero(t *testing.T) {
	five := tutorWithGrade("five@skolard.ca", "COMP1010", "5.0")
	letter := tutorWithGrade("letter@skolard.ca", "COMP1010", "A+")
	three := tutorWithGrade("three@skolard.ca", "COMP1010", "3.0")

	l := NewRatingList([]*models.Tutor{five, letter, three})

	got := l.SortByBestCourseRating("COMP1010")
	require.Len(t, got, 3)
	assert.Equal(t, []*models.Tutor{five, three, letter}, got)
}

func TestRatingListSortIsStableOnTies(t *testing.T) {
	a := tutorWithGrade("a@skolard.ca", "COMP1010", "4.0")
	b := tutorWithGrade("b@skolard.ca", "COMP1010", "4.0")
	c := tutorWithGrade("c@skolard.ca", "COMP1010", "B")
	d := tutorWithGrade("d@skolard.ca", "COMP1010", "F")

	l := NewRatingList([]*models.Tutor{a, b, c, d})

	got := l.SortByBestCourseRating("COMP1010")
	assert.Equal(t, []*models.Tutor{a, b, c, d}, got)
}

func TestRatingListEmptyReturnsNil(t *testing.T) {
	l := NewRatingList(nil)

	assert.Nil(t, l.SortByBestCourseRating("COMP1010"))
}

func TestRatingListMissingCourseKeepsTutor(t *testing.T) {
	rated := tutorWithGrade("rated@skolard.ca", "COMP1010", "2.0")
	unrated := tutorWithGrade("unrated@skolard.ca", "MATH1500", "4.5")

	l := NewRatingList([]*models.Tutor{unrated, rated})

	got := l.SortByBestCourseRating("COMP1010")
	assert.Equal(t, []*models.Tutor{rated, unrated}, got)
}
