// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package reports implements the fixed library of read-only aggregate reports
// over the gradebook tables.
//
// Every report is a pure function of the current table contents. An empty
// result is returned as an empty slice, a nil pointer or ok == false; it is
// never an error. Only malformed input is an error (*model.ErrValidation).
//
// Averages are rounded to two places, half to even. Ranking reports order by
// the unrounded average, highest first, and keep student id order for exact ties.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mdhender/gradebook/model"
)

// DefaultTopN is the number of students TopStudents returns.
const DefaultTopN = 5

// Querier is the read half of database/sql. *sql.DB, *sql.Tx and the
// stores' Queries all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Engine runs reports against a Querier.
type Engine struct {
	q    Querier
	topN int
}

type Option func(e *Engine) error

// WithTopN sets the number of rows returned by TopStudents.
func WithTopN(n int) Option {
	return func(e *Engine) error {
		if n <= 0 {
			return &model.ErrValidation{Field: "top_n", Msg: fmt.Sprintf("%d must be positive", n)}
		}
		e.topN = n
		return nil
	}
}

func New(q Querier, options ...Option) (*Engine, error) {
	e := &Engine{q: q, topN: DefaultTopN}
	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// StudentAverage is a student's full name with a rounded average.
type StudentAverage struct {
	Student string
	Average float64
}

// GroupAverage is a group name with a rounded average.
type GroupAverage struct {
	Group   string
	Average float64
}

// ScoreRow is a single score with the full name of the student who received it.
type ScoreRow struct {
	Score   float64
	Student string
}

// Round rounds an average to two decimal places, half to even.
func Round(avg float64) float64 {
	return math.RoundToEven(avg*100) / 100
}

const studentName = `st.first_name || ' ' || st.last_name`

// TopStudents returns the students with the highest average over all their scores.
func (e *Engine) TopStudents(ctx context.Context) ([]StudentAverage, error) {
	const query = `
		SELECT ` + studentName + `, AVG(sc.score)
		FROM students st
		JOIN scores sc ON sc.student_id = st.id
		GROUP BY st.id
		ORDER BY st.id`
	ranked, err := e.rankStudents(ctx, "top students", query)
	if err != nil {
		return nil, err
	}
	if len(ranked) > e.topN {
		ranked = ranked[:e.topN]
	}
	return ranked, nil
}

// TopStudentInSubject returns the student with the highest average in the subject,
// or nil when nobody has a score in it.
func (e *Engine) TopStudentInSubject(ctx context.Context, subject string) (*StudentAverage, error) {
	subject, err := required("subject", subject)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT ` + studentName + `, AVG(sc.score)
		FROM students st
		JOIN scores sc ON sc.student_id = st.id
		JOIN subjects su ON su.id = sc.subject_id
		WHERE su.name = ?
		GROUP BY st.id
		ORDER BY st.id`
	ranked, err := e.rankStudents(ctx, "top student in subject", query, subject)
	if err != nil {
		return nil, err
	} else if len(ranked) == 0 {
		return nil, nil
	}
	return &ranked[0], nil
}

// rankStudents runs a query returning (name, average) rows in student id order
// and sorts them by average. The sort is stable, so exact ties keep id order.
// Averages are rounded after sorting.
func (e *Engine) rankStudents(ctx context.Context, op, query string, args ...any) ([]StudentAverage, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}
	defer rows.Close()

	ranked := []StudentAverage{}
	for rows.Next() {
		var sa StudentAverage
		if err := rows.Scan(&sa.Student, &sa.Average); err != nil {
			return nil, &model.ErrDatabase{Op: op, Err: err}
		}
		ranked = append(ranked, sa)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Average > ranked[j].Average
	})
	for i := range ranked {
		ranked[i].Average = Round(ranked[i].Average)
	}
	return ranked, nil
}

// GroupAveragesInSubject returns the average score of each group in the subject,
// ordered by group name.
func (e *Engine) GroupAveragesInSubject(ctx context.Context, subject string) ([]GroupAverage, error) {
	subject, err := required("subject", subject)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT g.name, AVG(sc.score)
		FROM "groups" g
		JOIN students st ON st.group_id = g.id
		JOIN scores sc ON sc.student_id = st.id
		JOIN subjects su ON su.id = sc.subject_id
		WHERE su.name = ?
		GROUP BY g.name
		ORDER BY g.name`
	const op = "group averages in subject"
	rows, err := e.q.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}
	defer rows.Close()

	averages := []GroupAverage{}
	for rows.Next() {
		var ga GroupAverage
		if err := rows.Scan(&ga.Group, &ga.Average); err != nil {
			return nil, &model.ErrDatabase{Op: op, Err: err}
		}
		ga.Average = Round(ga.Average)
		averages = append(averages, ga)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}
	return averages, nil
}

// GlobalAverage returns the average of every score. ok is false when there are no scores.
func (e *Engine) GlobalAverage(ctx context.Context) (avg float64, ok bool, err error) {
	const query = `SELECT AVG(score) FROM scores`
	return e.average(ctx, "global average", query)
}

// SubjectsByTeacher returns the names of the subjects taught by teachers with the last name.
func (e *Engine) SubjectsByTeacher(ctx context.Context, lastName string) ([]string, error) {
	lastName, err := required("teacher", lastName)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT su.name
		FROM subjects su
		JOIN teachers t ON t.id = su.teacher_id
		WHERE t.last_name = ?
		ORDER BY su.id`
	return e.names(ctx, "subjects by teacher", query, lastName)
}

// StudentsInGroup returns the full names of the students in the group.
func (e *Engine) StudentsInGroup(ctx context.Context, group string) ([]string, error) {
	group, err := required("group", group)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT ` + studentName + `
		FROM students st
		JOIN "groups" g ON g.id = st.group_id
		WHERE g.name = ?
		ORDER BY st.id`
	return e.names(ctx, "students in group", query, group)
}

// GroupSubjectScores returns every score in the subject received by students of the group.
func (e *Engine) GroupSubjectScores(ctx context.Context, group, subject string) ([]ScoreRow, error) {
	group, err := required("group", group)
	if err != nil {
		return nil, err
	}
	subject, err = required("subject", subject)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT sc.score, ` + studentName + `
		FROM scores sc
		JOIN students st ON st.id = sc.student_id
		JOIN "groups" g ON g.id = st.group_id
		JOIN subjects su ON su.id = sc.subject_id
		WHERE g.name = ? AND su.name = ?
		ORDER BY sc.id`
	return e.scoreRows(ctx, "group subject scores", query, group, subject)
}

// TeacherAverage returns the average of the scores given in subjects taught by
// teachers with the last name. ok is false when no scores match.
func (e *Engine) TeacherAverage(ctx context.Context, lastName string) (avg float64, ok bool, err error) {
	lastName, err = required("teacher", lastName)
	if err != nil {
		return 0, false, err
	}
	const query = `
		SELECT AVG(sc.score)
		FROM scores sc
		JOIN subjects su ON su.id = sc.subject_id
		JOIN teachers t ON t.id = su.teacher_id
		WHERE t.last_name = ?`
	return e.average(ctx, "teacher average", query, lastName)
}

// StudentSubjects returns the distinct subjects the student has scores in.
func (e *Engine) StudentSubjects(ctx context.Context, student string) ([]string, error) {
	student, err := required("student", student)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT su.name
		FROM subjects su
		JOIN scores sc ON sc.subject_id = su.id
		JOIN students st ON st.id = sc.student_id
		WHERE ` + studentName + ` = ?
		GROUP BY su.id
		ORDER BY su.id`
	return e.names(ctx, "student subjects", query, student)
}

// StudentSubjectsWithTeacher returns the distinct subjects, taught by the teacher,
// that the student has scores in.
func (e *Engine) StudentSubjectsWithTeacher(ctx context.Context, student, teacher string) ([]string, error) {
	student, err := required("student", student)
	if err != nil {
		return nil, err
	}
	teacher, err = required("teacher", teacher)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT su.name
		FROM subjects su
		JOIN teachers t ON t.id = su.teacher_id
		JOIN scores sc ON sc.subject_id = su.id
		JOIN students st ON st.id = sc.student_id
		WHERE ` + studentName + ` = ? AND t.first_name || ' ' || t.last_name = ?
		GROUP BY su.id
		ORDER BY su.id`
	return e.names(ctx, "student subjects with teacher", query, student, teacher)
}

// StudentTeacherAverage returns the student's average over the scores received in
// subjects taught by the teacher. ok is false when no scores match.
func (e *Engine) StudentTeacherAverage(ctx context.Context, student, teacher string) (avg float64, ok bool, err error) {
	student, err = required("student", student)
	if err != nil {
		return 0, false, err
	}
	teacher, err = required("teacher", teacher)
	if err != nil {
		return 0, false, err
	}
	const query = `
		SELECT AVG(filtered.score)
		FROM (
			SELECT sc.score
			FROM scores sc
			JOIN subjects su ON su.id = sc.subject_id
			JOIN teachers t ON t.id = su.teacher_id
			JOIN students st ON st.id = sc.student_id
			WHERE ` + studentName + ` = ? AND t.first_name || ' ' || t.last_name = ?
		) AS filtered`
	return e.average(ctx, "student teacher average", query, student, teacher)
}

// LatestGroupSubjectScores returns, for each student of the group, the scores in the
// subject received on that student's most recent date. A student with several scores
// on that date gets one row per score.
func (e *Engine) LatestGroupSubjectScores(ctx context.Context, group, subject string) ([]ScoreRow, error) {
	group, err := required("group", group)
	if err != nil {
		return nil, err
	}
	subject, err = required("subject", subject)
	if err != nil {
		return nil, err
	}
	const query = `
		WITH latest AS (
			SELECT st.id AS student_id, MAX(sc.date) AS max_date
			FROM scores sc
			JOIN students st ON st.id = sc.student_id
			JOIN "groups" g ON g.id = st.group_id
			JOIN subjects su ON su.id = sc.subject_id
			WHERE g.name = ? AND su.name = ?
			GROUP BY st.id
		)
		SELECT sc.score, ` + studentName + `
		FROM scores sc
		JOIN students st ON st.id = sc.student_id
		JOIN subjects su ON su.id = sc.subject_id
		JOIN latest l ON l.student_id = sc.student_id AND l.max_date = sc.date
		WHERE su.name = ?
		ORDER BY st.id, sc.id`
	return e.scoreRows(ctx, "latest group subject scores", query, group, subject, subject)
}

func (e *Engine) average(ctx context.Context, op, query string, args ...any) (float64, bool, error) {
	var avg sql.NullFloat64
	if err := e.q.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, false, &model.ErrDatabase{Op: op, Err: err}
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return Round(avg.Float64), true, nil
}

func (e *Engine) names(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &model.ErrDatabase{Op: op, Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}
	return names, nil
}

func (e *Engine) scoreRows(ctx context.Context, op, query string, args ...any) ([]ScoreRow, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}
	defer rows.Close()

	scores := []ScoreRow{}
	for rows.Next() {
		var sr ScoreRow
		if err := rows.Scan(&sr.Score, &sr.Student); err != nil {
			return nil, &model.ErrDatabase{Op: op, Err: err}
		}
		scores = append(scores, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.ErrDatabase{Op: op, Err: err}
	}
	return scores, nil
}

// required normalizes a name parameter and rejects empty ones.
func required(param, value string) (string, error) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return "", &model.ErrValidation{Field: param, Msg: "must not be empty"}
	}
	return value, nil
}
