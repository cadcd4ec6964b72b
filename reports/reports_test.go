// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package reports_test

import (
	"context"
	"testing"

	"github.com/mdhender/gradebook/model"
	"github.com/mdhender/gradebook/reports"
	store "github.com/mdhender/gradebook/stores/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

// book builds a small gradebook for report tests.
type book struct {
	t   *testing.T
	ctx context.Context
	s   *store.SQLiteStore
	ids map[string]int64
}

func newBook(t *testing.T) *book {
	t.Helper()
	s, err := store.NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &book{t: t, ctx: context.Background(), s: s, ids: map[string]int64{}}
}

func (b *book) insert(key string, rec model.Record) int64 {
	b.t.Helper()
	id, err := b.s.Insert(b.ctx, rec)
	require.NoError(b.t, err, key)
	b.ids[key] = id
	return id
}

func (b *book) group(name string) {
	b.insert(name, &model.Group{Name: name})
}

func (b *book) teacher(first, last string) {
	b.insert(first+" "+last, &model.Teacher{FirstName: first, LastName: last})
}

func (b *book) student(first, last, group string) {
	b.insert(first+" "+last, &model.Student{FirstName: first, LastName: last, GroupID: b.ids[group]})
}

func (b *book) subject(name, teacher string) {
	b.insert(name, &model.Subject{Name: name, TeacherID: b.ids[teacher]})
}

func (b *book) score(student, subject string, value float64, date string) {
	b.t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(b.t, err)
	_, err = b.s.Insert(b.ctx, &model.Score{Value: value, Date: d, StudentID: b.ids[student], SubjectID: b.ids[subject]})
	require.NoError(b.t, err)
}

func (b *book) engine(options ...reports.Option) *reports.Engine {
	b.t.Helper()
	e, err := reports.New(b.s, options...)
	require.NoError(b.t, err)
	return e
}

// smallBook is the single-score gradebook used throughout the command examples.
func smallBook(t *testing.T) *book {
	b := newBook(t)
	b.group("G301")
	b.teacher("Jane", "Doe")
	b.subject("Mathematics", "Jane Doe")
	b.student("John", "Smith", "G301")
	b.score("John Smith", "Mathematics", 4.0, "2024-01-01")
	return b
}

// classBook has two groups, two teachers, three subjects and a spread of scores.
func classBook(t *testing.T) *book {
	b := newBook(t)
	b.group("G301")
	b.group("G302")
	b.teacher("Jane", "Doe")
	b.teacher("Mark", "Lee")
	b.subject("Mathematics", "Jane Doe")
	b.subject("Physics", "Jane Doe")
	b.subject("History", "Mark Lee")
	b.student("Ann", "Bell", "G301")  // id 1
	b.student("Bob", "Chan", "G301")  // id 2
	b.student("Cid", "Dunn", "G302")  // id 3
	b.student("Dee", "Ellis", "G302") // id 4

	b.score("Ann Bell", "Mathematics", 3.0, "2024-01-10")
	b.score("Ann Bell", "History", 3.0, "2024-01-11")
	b.score("Bob Chan", "Mathematics", 4.0, "2024-01-10")
	b.score("Bob Chan", "Physics", 4.0, "2024-01-12")
	b.score("Cid Dunn", "Mathematics", 2.0, "2024-01-10")
	b.score("Cid Dunn", "Mathematics", 4.0, "2024-01-15")
	b.score("Cid Dunn", "History", 3.7, "2024-01-16")
	// Dee has no scores
	return b
}

func TestSmallBook(t *testing.T) {
	b := smallBook(t)
	e := b.engine()

	top, err := e.TopStudentInSubject(b.ctx, "Mathematics")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, reports.StudentAverage{Student: "John Smith", Average: 4.0}, *top)

	subjects, err := e.SubjectsByTeacher(b.ctx, "Doe")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mathematics"}, subjects)

	students, err := e.StudentsInGroup(b.ctx, "G301")
	require.NoError(t, err)
	assert.Equal(t, []string{"John Smith"}, students)

	subjects, err = e.SubjectsByTeacher(b.ctx, "Nobody")
	require.NoError(t, err)
	assert.NotNil(t, subjects)
	assert.Empty(t, subjects, "unknown teacher")

	students, err = e.StudentsInGroup(b.ctx, "G999")
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students, "unknown group")
}

func TestRankingUsesUnroundedAverage(t *testing.T) {
	b := newBook(t)
	b.group("G301")
	b.teacher("Jane", "Doe")
	b.subject("Mathematics", "Jane Doe")
	b.student("Ann", "Bell", "G301")
	b.student("Bob", "Chan", "G301")
	// Ann averages 3.0100 over ten scores, Bob 3.0143 over seven; both round to 3.01
	for _, v := range []float64{3.7, 3.7, 3.7, 3.0, 3.0, 3.0, 3.0, 3.0, 2.0, 2.0} {
		b.score("Ann Bell", "Mathematics", v, "2024-01-10")
	}
	for _, v := range []float64{3.7, 3.7, 3.7, 3.0, 3.0, 2.0, 2.0} {
		b.score("Bob Chan", "Mathematics", v, "2024-01-10")
	}
	e := b.engine()

	top, err := e.TopStudentInSubject(b.ctx, "Mathematics")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, reports.StudentAverage{Student: "Bob Chan", Average: 3.01}, *top)

	ranked, err := e.TopStudents(b.ctx)
	require.NoError(t, err)
	assert.Equal(t, []reports.StudentAverage{
		{"Bob Chan", 3.01},
		{"Ann Bell", 3.01},
	}, ranked)
}

func TestTopStudents(t *testing.T) {
	b := classBook(t)
	e := b.engine()

	top, err := e.TopStudents(b.ctx)
	require.NoError(t, err)
	assert.Equal(t, []reports.StudentAverage{
		{"Bob Chan", 4.0},
		{"Cid Dunn", 3.23},
		{"Ann Bell", 3.0},
	}, top, "students without scores are not ranked")
}

func TestTopStudentsLimit(t *testing.T) {
	b := newBook(t)
	b.group("G301")
	b.teacher("Jane", "Doe")
	b.subject("Art", "Jane Doe")
	names := []string{"Al", "Bo", "Cy", "Di", "Ed", "Fe", "Gu"}
	values := []float64{1.0, 3.0, 2.0, 3.0, 4.0, 3.0, 0.0}
	for i, first := range names {
		b.student(first, "Ames", "G301")
		b.score(first+" Ames", "Art", values[i], "2024-03-01")
	}

	top, err := b.engine().TopStudents(b.ctx)
	require.NoError(t, err)
	require.Len(t, top, reports.DefaultTopN)
	// ties keep id order
	assert.Equal(t, []reports.StudentAverage{
		{"Ed Ames", 4.0},
		{"Bo Ames", 3.0},
		{"Di Ames", 3.0},
		{"Fe Ames", 3.0},
		{"Cy Ames", 2.0},
	}, top)

	top, err = b.engine(reports.WithTopN(2)).TopStudents(b.ctx)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	_, err = reports.New(b.s, reports.WithTopN(0))
	var ve *model.ErrValidation
	assert.ErrorAs(t, err, &ve)
}

func TestTopStudentInSubject(t *testing.T) {
	b := classBook(t)
	e := b.engine()

	top, err := e.TopStudentInSubject(b.ctx, "Mathematics")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "Bob Chan", top.Student)

	// Bob joins History with a low score
	b.score("Bob Chan", "History", 2.0, "2024-02-01")
	top, err = e.TopStudentInSubject(b.ctx, "History")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, reports.StudentAverage{Student: "Cid Dunn", Average: 3.7}, *top)

	top, err = e.TopStudentInSubject(b.ctx, "Chemistry")
	require.NoError(t, err)
	assert.Nil(t, top)
}

func TestGroupAveragesInSubject(t *testing.T) {
	b := classBook(t)

	averages, err := b.engine().GroupAveragesInSubject(b.ctx, "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, []reports.GroupAverage{
		{"G301", 3.5},
		{"G302", 3.0},
	}, averages)

	averages, err = b.engine().GroupAveragesInSubject(b.ctx, "Chemistry")
	require.NoError(t, err)
	assert.Empty(t, averages)
	assert.NotNil(t, averages)
}

func TestGlobalAverage(t *testing.T) {
	b := newBook(t)
	e := b.engine()

	_, ok, err := e.GlobalAverage(b.ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no scores")

	b = classBook(t)
	avg, ok, err := b.engine().GlobalAverage(b.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reports.Round(stat.Mean([]float64{3.0, 3.0, 4.0, 4.0, 2.0, 4.0, 3.7}, nil)), avg)
}

func TestTeacherAverage(t *testing.T) {
	b := classBook(t)
	e := b.engine()

	avg, ok, err := e.TeacherAverage(b.ctx, "Doe")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reports.Round(stat.Mean([]float64{3.0, 4.0, 4.0, 2.0, 4.0}, nil)), avg)

	_, ok, err = e.TeacherAverage(b.ctx, "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGroupSubjectScores(t *testing.T) {
	b := classBook(t)

	rows, err := b.engine().GroupSubjectScores(b.ctx, "G302", "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, []reports.ScoreRow{
		{2.0, "Cid Dunn"},
		{4.0, "Cid Dunn"},
	}, rows)
}

func TestStudentSubjects(t *testing.T) {
	b := classBook(t)
	e := b.engine()

	subjects, err := e.StudentSubjects(b.ctx, "Cid Dunn")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mathematics", "History"}, subjects, "distinct, in subject id order")

	subjects, err = e.StudentSubjects(b.ctx, "Dee Ellis")
	require.NoError(t, err)
	assert.Empty(t, subjects)

	subjects, err = e.StudentSubjectsWithTeacher(b.ctx, "Cid Dunn", "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mathematics"}, subjects)

	subjects, err = e.StudentSubjectsWithTeacher(b.ctx, "Cid Dunn", "Mark Lee")
	require.NoError(t, err)
	assert.Equal(t, []string{"History"}, subjects)
}

func TestStudentTeacherAverage(t *testing.T) {
	b := classBook(t)
	e := b.engine()

	avg, ok, err := e.StudentTeacherAverage(b.ctx, "Cid Dunn", "Jane Doe")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reports.Round(stat.Mean([]float64{2.0, 4.0}, nil)), avg)

	_, ok, err = e.StudentTeacherAverage(b.ctx, "Ann Bell", "Nobody Here")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLatestGroupSubjectScores(t *testing.T) {
	b := classBook(t)
	// a second Mathematics score on Cid's latest date, and a later History score for Ann
	b.score("Cid Dunn", "Mathematics", 3.3, "2024-01-15")
	b.score("Ann Bell", "History", 1.0, "2024-03-01")
	b.score("Ann Bell", "Mathematics", 2.7, "2024-02-01")
	e := b.engine()

	rows, err := e.LatestGroupSubjectScores(b.ctx, "G302", "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, []reports.ScoreRow{
		{4.0, "Cid Dunn"},
		{3.3, "Cid Dunn"},
	}, rows, "every score on the latest date")

	rows, err = e.LatestGroupSubjectScores(b.ctx, "G301", "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, []reports.ScoreRow{
		{2.7, "Ann Bell"},
		{4.0, "Bob Chan"},
	}, rows, "scores in other subjects do not leak in")
}

func TestRequiredParams(t *testing.T) {
	b := classBook(t)
	e := b.engine()
	var ve *model.ErrValidation

	_, err := e.TopStudentInSubject(b.ctx, "  ")
	assert.ErrorAs(t, err, &ve)
	_, err = e.StudentsInGroup(b.ctx, "")
	assert.ErrorAs(t, err, &ve)
	_, err = e.GroupSubjectScores(b.ctx, "G301", "")
	assert.ErrorAs(t, err, &ve)
	_, _, err = e.StudentTeacherAverage(b.ctx, "", "Jane Doe")
	assert.ErrorAs(t, err, &ve)
}

func TestReportsDoNotWrite(t *testing.T) {
	b := classBook(t)
	e := b.engine()
	before, err := b.s.TableStats(b.ctx)
	require.NoError(t, err)

	p := reports.Params{Group: "G301", Subject: "Mathematics", Student: "Ann Bell", Teacher: "Jane Doe"}
	for _, r := range reports.Catalog {
		first, err := e.Run(b.ctx, r.Number, p)
		require.NoError(t, err, "report %d", r.Number)
		second, err := e.Run(b.ctx, r.Number, p)
		require.NoError(t, err, "report %d", r.Number)
		assert.Equal(t, first, second, "report %d is repeatable", r.Number)
	}

	after, err := b.s.TableStats(b.ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRoundHalfToEven(t *testing.T) {
	assert.Equal(t, 3.67, reports.Round(11.0/3.0))
	assert.Equal(t, 2.5, reports.Round(2.5))
	assert.Equal(t, 0.12, reports.Round(0.125))
}
