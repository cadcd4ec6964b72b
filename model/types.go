// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind discriminates the five entity tables.
type Kind int

const (
	KindGroup Kind = iota + 1
	KindTeacher
	KindStudent
	KindSubject
	KindScore
)

// Kinds lists every entity kind in dependency order (referenced tables first).
var Kinds = []Kind{KindGroup, KindTeacher, KindStudent, KindSubject, KindScore}

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "Group"
	case KindTeacher:
		return "Teacher"
	case KindStudent:
		return "Student"
	case KindSubject:
		return "Subject"
	case KindScore:
		return "Score"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Table returns the name of the table holding rows of this kind.
func (k Kind) Table() string {
	switch k {
	case KindGroup:
		return "groups"
	case KindTeacher:
		return "teachers"
	case KindStudent:
		return "students"
	case KindSubject:
		return "subjects"
	case KindScore:
		return "scores"
	}
	return ""
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return KindGroup <= k && k <= KindScore
}

// ParseKind maps a model name ("Student", "group", ...) to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(name), k.String()) {
			return k, nil
		}
	}
	return 0, &ErrValidation{Field: "model", Msg: fmt.Sprintf("unknown model %q", name)}
}

// Record is implemented by the five row types.
type Record interface {
	RecordKind() Kind
	RecordID() int64
}

// Group is a class of students, e.g. "G301".
type Group struct {
	ID   int64  `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}

func (g *Group) RecordKind() Kind { return KindGroup }
func (g *Group) RecordID() int64 { return g.ID }

// Teacher owns zero or more subjects.
type Teacher struct {
	ID        int64  `json:"id"        db:"id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName"  db:"last_name"`
}

func (t *Teacher) RecordKind() Kind { return KindTeacher }
func (t *Teacher) RecordID() int64 { return t.ID }
func (t *Teacher) FullName() string { return t.FirstName + " " + t.LastName }

// Student belongs to exactly one group.
type Student struct {
	ID        int64  `json:"id"        db:"id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName"  db:"last_name"`
	GroupID   int64  `json:"groupId"   db:"group_id"`
}

func (s *Student) RecordKind() Kind { return KindStudent }
func (s *Student) RecordID() int64 { return s.ID }
func (s *Student) FullName() string { return s.FirstName + " " + s.LastName }

// Subject is taught by exactly one teacher.
type Subject struct {
	ID        int64  `json:"id"        db:"id"`
	Name      string `json:"name"      db:"name"`
	TeacherID int64  `json:"teacherId" db:"teacher_id"`
}

func (s *Subject) RecordKind() Kind { return KindSubject }
func (s *Subject) RecordID() int64 { return s.ID }

// Score is one grade a student received in a subject on a date.
type Score struct {
	ID        int64     `json:"id"        db:"id"`
	Value     float64   `json:"score"     db:"score"`
	Date      time.Time `json:"date"      db:"date"` // calendar date, stored as YYYY-MM-DD
	StudentID int64     `json:"studentId" db:"student_id"`
	SubjectID int64     `json:"subjectId" db:"subject_id"`
}

func (s *Score) RecordKind() Kind { return KindScore }
func (s *Score) RecordID() int64 { return s.ID }

// DateLayout is the storage and command line format for score dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ErrValidation{Field: "date", Msg: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	return t, nil
}

// ScoreScale is the discrete grading scale, best first.
var ScoreScale = []float64{4.0, 3.7, 3.3, 3.0, 2.7, 2.3, 2.0, 1.7, 1.3, 1.0, 0.0}

// ValidScore reports whether v is on the grading scale.
func ValidScore(v float64) bool {
	for _, s := range ScoreScale {
		if math.Abs(v-s) < 1e-9 {
			return true
		}
	}
	return false
}

// SplitFullName splits "First Last" into its two parts.
// Anything other than exactly two words is rejected.
func SplitFullName(name string) (first, last string, err error) {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return "", "", &ErrValidation{Field: "name", Msg: fmt.Sprintf("%q must be \"first_name last_name\"", name)}
	}
	return parts[0], parts[1], nil
}

// Fields is a partial update. Nil pointers are left untouched.
type Fields struct {
	Name      *string // Group, Subject
	FirstName *string // Teacher, Student
	LastName  *string // Teacher, Student
	GroupID   *int64  // Student
	TeacherID *int64  // Subject
	Score     *float64
	Date      *time.Time
	StudentID *int64 // Score
	SubjectID *int64 // Score
}

// IsEmpty is true when no field is set.
func (f Fields) IsEmpty() bool {
	return f.Name == nil && f.FirstName == nil && f.LastName == nil &&
		f.GroupID == nil && f.TeacherID == nil && f.Score == nil &&
		f.Date == nil && f.StudentID == nil && f.SubjectID == nil
}

// Assignments returns the set fields as column names and values, in a fixed order.
// Dates are formatted with DateLayout.
func (f Fields) Assignments() (cols []string, args []any) {
	if f.Name != nil {
		cols, args = append(cols, "name"), append(args, strings.TrimSpace(*f.Name))
	}
	if f.FirstName != nil {
		cols, args = append(cols, "first_name"), append(args, strings.TrimSpace(*f.FirstName))
	}
	if f.LastName != nil {
		cols, args = append(cols, "last_name"), append(args, strings.TrimSpace(*f.LastName))
	}
	if f.GroupID != nil {
		cols, args = append(cols, "group_id"), append(args, *f.GroupID)
	}
	if f.TeacherID != nil {
		cols, args = append(cols, "teacher_id"), append(args, *f.TeacherID)
	}
	if f.Score != nil {
		cols, args = append(cols, "score"), append(args, *f.Score)
	}
	if f.Date != nil {
		cols, args = append(cols, "date"), append(args, f.Date.Format(DateLayout))
	}
	if f.StudentID != nil {
		cols, args = append(cols, "student_id"), append(args, *f.StudentID)
	}
	if f.SubjectID != nil {
		cols, args = append(cols, "subject_id"), append(args, *f.SubjectID)
	}
	return cols, args
}

// Columns lists the column names each kind accepts in an update.
func Columns(k Kind) []string {
	switch k {
	case KindGroup:
		return []string{"name"}
	case KindTeacher:
		return []string{"first_name", "last_name"}
	case KindStudent:
		return []string{"first_name", "last_name", "group_id"}
	case KindSubject:
		return []string{"name", "teacher_id"}
	case KindScore:
		return []string{"score", "date", "student_id", "subject_id"}
	}
	return nil
}

// Validate rejects fields that do not belong to kind k and values that are malformed.
func (f Fields) Validate(k Kind) error {
	allowed := Columns(k)
	if allowed == nil {
		return &ErrValidation{Field: "model", Msg: fmt.Sprintf("unknown model %v", k)}
	}
	cols, _ := f.Assignments()
	for _, col := range cols {
		ok := false
		for _, a := range allowed {
			ok = ok || a == col
		}
		if !ok {
			return &ErrValidation{Field: col, Msg: fmt.Sprintf("does not apply to %s", k)}
		}
	}
	for _, p := range []struct {
		col string
		val *string
	}{{"name", f.Name}, {"first_name", f.FirstName}, {"last_name", f.LastName}} {
		if p.val != nil && strings.TrimSpace(*p.val) == "" {
			return &ErrValidation{Field: p.col, Msg: "must not be empty"}
		}
	}
	for _, p := range []struct {
		col string
		val *int64
	}{{"group_id", f.GroupID}, {"teacher_id", f.TeacherID}, {"student_id", f.StudentID}, {"subject_id", f.SubjectID}} {
		if p.val != nil && *p.val <= 0 {
			return &ErrValidation{Field: p.col, Msg: fmt.Sprintf("%d is not a valid id", *p.val)}
		}
	}
	if f.Score != nil && !ValidScore(*f.Score) {
		return &ErrValidation{Field: "score", Msg: fmt.Sprintf("%g is not on the grading scale", *f.Score)}
	}
	if f.Date != nil && f.Date.IsZero() {
		return &ErrValidation{Field: "date", Msg: "must be set"}
	}
	return nil
}

// Validate checks a record before it is inserted.
func Validate(rec Record) error {
	switch r := rec.(type) {
	case *Group:
		return Fields{Name: &r.Name}.Validate(KindGroup)
	case *Teacher:
		return Fields{FirstName: &r.FirstName, LastName: &r.LastName}.Validate(KindTeacher)
	case *Student:
		return Fields{FirstName: &r.FirstName, LastName: &r.LastName, GroupID: &r.GroupID}.Validate(KindStudent)
	case *Subject:
		return Fields{Name: &r.Name, TeacherID: &r.TeacherID}.Validate(KindSubject)
	case *Score:
		return Fields{Score: &r.Value, Date: &r.Date, StudentID: &r.StudentID, SubjectID: &r.SubjectID}.Validate(KindScore)
	}
	return &ErrValidation{Field: "record", Msg: fmt.Sprintf("unsupported record type %T", rec)}
}
