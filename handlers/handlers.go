// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package handlers implements the create, update, remove and list commands.
// Every handler returns a Result carrying a status string and an exit code;
// errors are reported through the Result and never escape as panics.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mdhender/gradebook/model"
	"github.com/mdhender/gradebook/renderer"
)

// Status strings shown to the user.
const (
	StatusSuccess         = "Successful!"
	StatusNoSuchRow       = "No such row"
	StatusAlreadyExists   = "Already Exists!"
	StatusStudentNotFound = "Student Not Found!"
	StatusSubjectNotFound = "Subject Not Found!"
	StatusGroupNotFound   = "Group Not Found!"
	StatusTeacherNotFound = "Teacher Not Found!"
)

// Handlers holds dependencies for the command handlers.
type Handlers struct {
	store  model.Store
	render *renderer.Renderer
	now    func() time.Time
}

// New creates a new Handlers with the given store and table renderer.
func New(s model.Store, r *renderer.Renderer) *Handlers {
	return &Handlers{store: s, render: r, now: time.Now}
}

// SetClock sets the clock used for default score dates. For testing.
func (h *Handlers) SetClock(now func() time.Time) {
	h.now = now
}

// Args mirrors the command line flags. Nil pointers are flags that were not given.
type Args struct {
	Name    *string  // --name, "First Last" for people
	GroupID *int64   // --group-id
	LinkID  *int64   // --link-id, the teacher of a subject
	Score   *float64 // --score
	Subject *string  // --subject, a subject name
	Date    *string  // --date, YYYY-MM-DD
}

// given returns the flag names that are set, sorted.
func (a Args) given() []string {
	var flags []string
	if a.Name != nil {
		flags = append(flags, "name")
	}
	if a.GroupID != nil {
		flags = append(flags, "group-id")
	}
	if a.LinkID != nil {
		flags = append(flags, "link-id")
	}
	if a.Score != nil {
		flags = append(flags, "score")
	}
	if a.Subject != nil {
		flags = append(flags, "subject")
	}
	if a.Date != nil {
		flags = append(flags, "date")
	}
	sort.Strings(flags)
	return flags
}

// Flags lists the flags each model accepts.
func Flags(kind model.Kind) []string {
	switch kind {
	case model.KindGroup, model.KindTeacher:
		return []string{"name"}
	case model.KindStudent:
		return []string{"name", "group-id"}
	case model.KindSubject:
		return []string{"name", "link-id"}
	case model.KindScore:
		return []string{"name", "subject", "score", "date"}
	}
	return nil
}

// checkFlags rejects flags that do not apply to the model.
func (a Args) checkFlags(kind model.Kind) error {
	accepted := Flags(kind)
	for _, flag := range a.given() {
		ok := false
		for _, f := range accepted {
			ok = ok || f == flag
		}
		if !ok {
			return &model.ErrValidation{Field: flag, Msg: fmt.Sprintf("--%s does not apply to %s", flag, kind)}
		}
	}
	return nil
}

// Result is the outcome of one handler call.
type Result struct {
	Status string
	Code   int    // process exit code
	Output string // rendered table for list, details for remove --cascade
	Err    error  // the underlying error, nil on success
}

// Status maps an error to the status string and exit code shown to the user.
func Status(err error) Result {
	if err == nil {
		return Result{Status: StatusSuccess, Code: model.ExitOK}
	}
	res := Result{Code: model.ExitCode(err), Err: err}

	var (
		validation *model.ErrValidation
		notFound   *model.ErrNotFound
		duplicate  *model.ErrDuplicate
		integrity  *model.ErrIntegrity
	)
	switch {
	case errors.As(err, &notFound):
		res.Status = StatusNoSuchRow
		if notFound.Name != "" {
			switch notFound.Kind {
			case model.KindStudent:
				res.Status = StatusStudentNotFound
			case model.KindSubject:
				res.Status = StatusSubjectNotFound
			case model.KindGroup:
				res.Status = StatusGroupNotFound
			case model.KindTeacher:
				res.Status = StatusTeacherNotFound
			}
		}
	case errors.As(err, &duplicate):
		res.Status = StatusAlreadyExists
	case errors.As(err, &validation):
		res.Status = "Validation error: " + validation.Error()
	case errors.As(err, &integrity):
		res.Status = "Integrity error: " + integrity.Error()
	default:
		res.Status = "Database error: " + err.Error()
	}
	return res
}

// Create inserts a new row built from the arguments.
func (h *Handlers) Create(ctx context.Context, kind model.Kind, args Args) Result {
	rec, err := h.buildRecord(ctx, kind, args)
	if err != nil {
		return Status(err)
	}
	_, err = h.store.Insert(ctx, rec)
	return Status(err)
}

func (h *Handlers) buildRecord(ctx context.Context, kind model.Kind, args Args) (model.Record, error) {
	if err := args.checkFlags(kind); err != nil {
		return nil, err
	}
	if kind.Valid() {
		for _, flag := range Flags(kind) {
			if flag == "date" {
				continue // optional, defaults to today
			}
			if !contains(args.given(), flag) {
				return nil, &model.ErrValidation{Field: flag, Msg: fmt.Sprintf("--%s is required to create a %s", flag, kind)}
			}
		}
	}

	switch kind {
	case model.KindGroup:
		return &model.Group{Name: strings.TrimSpace(*args.Name)}, nil
	case model.KindTeacher:
		first, last, err := model.SplitFullName(*args.Name)
		if err != nil {
			return nil, err
		}
		return &model.Teacher{FirstName: first, LastName: last}, nil
	case model.KindStudent:
		first, last, err := model.SplitFullName(*args.Name)
		if err != nil {
			return nil, err
		}
		return &model.Student{FirstName: first, LastName: last, GroupID: *args.GroupID}, nil
	case model.KindSubject:
		return &model.Subject{Name: strings.TrimSpace(*args.Name), TeacherID: *args.LinkID}, nil
	case model.KindScore:
		if _, _, err := model.SplitFullName(*args.Name); err != nil {
			return nil, err
		}
		if !model.ValidScore(*args.Score) {
			return nil, &model.ErrValidation{Field: "score", Msg: fmt.Sprintf("%g is not on the grading scale", *args.Score)}
		}
		date, err := h.scoreDate(args.Date)
		if err != nil {
			return nil, err
		}
		student, err := h.store.FindStudentByFullName(ctx, *args.Name)
		if err != nil {
			return nil, err
		}
		subject, err := h.store.FindSubjectByName(ctx, *args.Subject)
		if err != nil {
			return nil, err
		}
		return &model.Score{Value: *args.Score, Date: date, StudentID: student.ID, SubjectID: subject.ID}, nil
	}
	return nil, &model.ErrValidation{Field: "model", Msg: fmt.Sprintf("unknown model %v", kind)}
}

func (h *Handlers) scoreDate(arg *string) (time.Time, error) {
	if arg == nil {
		y, m, d := h.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return model.ParseDate(*arg)
}

// Update changes only the fields named by the arguments.
func (h *Handlers) Update(ctx context.Context, kind model.Kind, id int64, args Args) Result {
	f, err := h.buildFields(ctx, kind, id, args)
	if err != nil {
		return Status(err)
	}
	_, err = h.store.Update(ctx, kind, id, f)
	return Status(err)
}

func (h *Handlers) buildFields(ctx context.Context, kind model.Kind, id int64, args Args) (model.Fields, error) {
	var f model.Fields
	if err := args.checkFlags(kind); err != nil {
		return f, err
	}
	if len(args.given()) == 0 {
		return f, &model.ErrValidation{Field: "fields", Msg: "nothing to update"}
	}
	if id <= 0 {
		return f, &model.ErrValidation{Field: "index", Msg: fmt.Sprintf("%d is not a valid id", id)}
	}

	// the name is validated before storage is touched
	var first, last string
	if args.Name != nil && (kind == model.KindTeacher || kind == model.KindStudent || kind == model.KindScore) {
		var err error
		if first, last, err = model.SplitFullName(*args.Name); err != nil {
			return f, err
		}
	}
	if args.Score != nil && !model.ValidScore(*args.Score) {
		return f, &model.ErrValidation{Field: "score", Msg: fmt.Sprintf("%g is not on the grading scale", *args.Score)}
	}
	if args.Date != nil {
		date, err := model.ParseDate(*args.Date)
		if err != nil {
			return f, err
		}
		f.Date = &date
	}

	if _, err := h.store.Get(ctx, kind, id); err != nil {
		return f, err
	}

	switch kind {
	case model.KindGroup, model.KindSubject:
		f.Name = args.Name
		f.TeacherID = args.LinkID
	case model.KindTeacher, model.KindStudent:
		if args.Name != nil {
			f.FirstName, f.LastName = &first, &last
		}
		f.GroupID = args.GroupID
	case model.KindScore:
		f.Score = args.Score
		if args.Name != nil {
			student, err := h.store.FindStudentByFullName(ctx, first+" "+last)
			if err != nil {
				return f, err
			}
			f.StudentID = &student.ID
		}
		if args.Subject != nil {
			subject, err := h.store.FindSubjectByName(ctx, *args.Subject)
			if err != nil {
				return f, err
			}
			f.SubjectID = &subject.ID
		}
	}
	return f, nil
}

// Remove deletes a row. Without cascade, rows that are still referenced are kept.
func (h *Handlers) Remove(ctx context.Context, kind model.Kind, id int64, cascade bool) Result {
	if id <= 0 {
		return Status(&model.ErrValidation{Field: "index", Msg: fmt.Sprintf("%d is not a valid id", id)})
	}
	if !cascade {
		return Status(h.store.Delete(ctx, kind, id))
	}

	removed, err := h.store.DeleteCascade(ctx, kind, id)
	res := Status(err)
	if err == nil {
		var sb strings.Builder
		for _, k := range model.Kinds {
			if n := removed[k]; n != 0 {
				fmt.Fprintf(&sb, "removed %d %s\n", n, k.Table())
			}
		}
		res.Output = sb.String()
	}
	return res
}

// List renders every row of the model as a table.
func (h *Handlers) List(ctx context.Context, kind model.Kind) Result {
	recs, err := h.store.Scan(ctx, kind)
	if err != nil {
		return Status(err)
	}
	columns, rows := Table(kind, recs)
	res := Status(nil)
	res.Output = h.render.Render(columns, rows)
	return res
}

// Table returns the list columns for a model and one row of values per record.
func Table(kind model.Kind, recs []model.Record) (columns []string, rows [][]any) {
	switch kind {
	case model.KindStudent:
		columns = []string{"id", "fullname", "group_id"}
	case model.KindGroup:
		columns = []string{"id", "name"}
	case model.KindTeacher:
		columns = []string{"id", "fullname"}
	case model.KindScore:
		columns = []string{"id", "score", "date", "student_id", "subject_id"}
	case model.KindSubject:
		columns = []string{"id", "name", "teacher_id"}
	}
	rows = [][]any{}
	for _, rec := range recs {
		switch r := rec.(type) {
		case *model.Student:
			rows = append(rows, []any{r.ID, r.FullName(), r.GroupID})
		case *model.Group:
			rows = append(rows, []any{r.ID, r.Name})
		case *model.Teacher:
			rows = append(rows, []any{r.ID, r.FullName()})
		case *model.Score:
			rows = append(rows, []any{r.ID, r.Value, r.Date, r.StudentID, r.SubjectID})
		case *model.Subject:
			rows = append(rows, []any{r.ID, r.Name, r.TeacherID})
		}
	}
	return columns, rows
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
