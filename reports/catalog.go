// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdhender/gradebook/model"
)

// Report describes one entry of the report library.
type Report struct {
	Number  int
	Title   string
	Params  []string // names of the Params fields the report reads
	Columns []string // column labels, in the order of Result.Rows values
}

// Catalog lists every report by number.
var Catalog = []Report{
	{1, "Top students by average score", nil, []string{"student", "average"}},
	{2, "Top student in a subject", []string{"subject"}, []string{"student", "average"}},
	{3, "Average score per group in a subject", []string{"subject"}, []string{"group", "average"}},
	{4, "Average of all scores", nil, []string{"average"}},
	{5, "Subjects taught by a teacher", []string{"teacher"}, []string{"subject"}},
	{6, "Students in a group", []string{"group"}, []string{"student"}},
	{7, "Scores of a group in a subject", []string{"group", "subject"}, []string{"score", "student"}},
	{8, "Average score given by a teacher", []string{"teacher"}, []string{"average"}},
	{9, "Subjects a student has scores in", []string{"student"}, []string{"subject"}},
	{10, "Subjects a student has with a teacher", []string{"student", "teacher"}, []string{"subject"}},
	{11, "Average score of a student with a teacher", []string{"student", "teacher"}, []string{"average"}},
	{12, "Latest scores of a group in a subject", []string{"group", "subject"}, []string{"score", "student"}},
}

// Lookup returns the catalog entry for a report number.
func Lookup(number int) (Report, error) {
	if number < 1 || number > len(Catalog) {
		return Report{}, &model.ErrValidation{Field: "report", Msg: fmt.Sprintf("%d is not between 1 and %d", number, len(Catalog))}
	}
	return Catalog[number-1], nil
}

// Params holds the arguments for Run. Reports read only the fields named in Report.Params.
//
// Teacher is a full name ("First Last"). Reports that select by last name use the
// last word of it, so a bare last name works for them too.
type Params struct {
	Group   string
	Subject string
	Student string
	Teacher string
}

// Result is a report's output in the shape the renderer wants.
// Null is set for reports whose single value does not exist (no matching rows).
type Result struct {
	Report  Report
	Columns []string
	Rows    [][]any
	Null    bool
}

// Empty is true when the report produced no rows.
func (r *Result) Empty() bool {
	return r.Null || len(r.Rows) == 0
}

// Run executes a report by number.
func (e *Engine) Run(ctx context.Context, number int, p Params) (*Result, error) {
	report, err := Lookup(number)
	if err != nil {
		return nil, err
	}
	result := &Result{Report: report, Columns: report.Columns, Rows: [][]any{}}

	addStudents := func(list []StudentAverage) {
		for _, sa := range list {
			result.Rows = append(result.Rows, []any{sa.Student, sa.Average})
		}
	}
	addNames := func(list []string) {
		for _, name := range list {
			result.Rows = append(result.Rows, []any{name})
		}
	}
	addScores := func(list []ScoreRow) {
		for _, sr := range list {
			result.Rows = append(result.Rows, []any{sr.Score, sr.Student})
		}
	}
	addAverage := func(avg float64, ok bool) {
		if ok {
			result.Rows = append(result.Rows, []any{avg})
		} else {
			result.Null = true
		}
	}

	switch number {
	case 1:
		var list []StudentAverage
		if list, err = e.TopStudents(ctx); err == nil {
			addStudents(list)
		}
	case 2:
		var top *StudentAverage
		if top, err = e.TopStudentInSubject(ctx, p.Subject); err == nil {
			if top == nil {
				result.Null = true
			} else {
				addStudents([]StudentAverage{*top})
			}
		}
	case 3:
		var list []GroupAverage
		if list, err = e.GroupAveragesInSubject(ctx, p.Subject); err == nil {
			for _, ga := range list {
				result.Rows = append(result.Rows, []any{ga.Group, ga.Average})
			}
		}
	case 4:
		var avg float64
		var ok bool
		if avg, ok, err = e.GlobalAverage(ctx); err == nil {
			addAverage(avg, ok)
		}
	case 5:
		var list []string
		if list, err = e.SubjectsByTeacher(ctx, LastName(p.Teacher)); err == nil {
			addNames(list)
		}
	case 6:
		var list []string
		if list, err = e.StudentsInGroup(ctx, p.Group); err == nil {
			addNames(list)
		}
	case 7:
		var list []ScoreRow
		if list, err = e.GroupSubjectScores(ctx, p.Group, p.Subject); err == nil {
			addScores(list)
		}
	case 8:
		var avg float64
		var ok bool
		if avg, ok, err = e.TeacherAverage(ctx, LastName(p.Teacher)); err == nil {
			addAverage(avg, ok)
		}
	case 9:
		var list []string
		if list, err = e.StudentSubjects(ctx, p.Student); err == nil {
			addNames(list)
		}
	case 10:
		var list []string
		if list, err = e.StudentSubjectsWithTeacher(ctx, p.Student, p.Teacher); err == nil {
			addNames(list)
		}
	case 11:
		var avg float64
		var ok bool
		if avg, ok, err = e.StudentTeacherAverage(ctx, p.Student, p.Teacher); err == nil {
			addAverage(avg, ok)
		}
	case 12:
		var list []ScoreRow
		if list, err = e.LatestGroupSubjectScores(ctx, p.Group, p.Subject); err == nil {
			addScores(list)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("report %d: %w", number, err)
	}
	return result, nil
}

// LastName returns the last word of a name, or "" for a blank one.
func LastName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
