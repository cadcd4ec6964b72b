// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mdhender/gradebook/model"
)

func TestParseKind(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  model.Kind
	}{
		{"Group", model.KindGroup},
		{"teacher", model.KindTeacher},
		{"STUDENT", model.KindStudent},
		{" Subject ", model.KindSubject},
		{"score", model.KindScore},
	} {
		got, err := model.ParseKind(tc.input)
		if err != nil {
			t.Errorf("%q: want nil, got %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: want %v, got %v", tc.input, tc.want, got)
		}
	}

	_, err := model.ParseKind("Classroom")
	var ve *model.ErrValidation
	if !errors.As(err, &ve) {
		t.Errorf("Classroom: want *ErrValidation, got %v", err)
	}
}

func TestKindTable(t *testing.T) {
	want := map[model.Kind]string{
		model.KindGroup:   "groups",
		model.KindTeacher: "teachers",
		model.KindStudent: "students",
		model.KindSubject: "subjects",
		model.KindScore:   "scores",
	}
	for _, k := range model.Kinds {
		if got := k.Table(); got != want[k] {
			t.Errorf("%v: want %q, got %q", k, want[k], got)
		}
	}
	if model.Kind(0).Valid() {
		t.Errorf("Kind(0): want invalid")
	}
}

func TestSplitFullName(t *testing.T) {
	first, last, err := model.SplitFullName("  John   Smith ")
	if err != nil {
		t.Fatalf("split: want nil, got %v", err)
	}
	if first != "John" || last != "Smith" {
		t.Errorf("split: want John/Smith, got %q/%q", first, last)
	}

	for _, name := range []string{"", "John", "John Ronald Smith"} {
		if _, _, err := model.SplitFullName(name); err == nil {
			t.Errorf("%q: want error, got nil", name)
		}
	}
}

func TestValidScore(t *testing.T) {
	for _, v := range model.ScoreScale {
		if !model.ValidScore(v) {
			t.Errorf("%g: want valid", v)
		}
	}
	for _, v := range []float64{-1, 0.5, 3.5, 4.1, 5} {
		if model.ValidScore(v) {
			t.Errorf("%g: want invalid", v)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := model.ParseDate("2024-01-01")
	if err != nil {
		t.Fatalf("parse: want nil, got %v", err)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parse: want %v, got %v", want, got)
	}
	for _, s := range []string{"", "01/01/2024", "2024-13-01"} {
		if _, err := model.ParseDate(s); err == nil {
			t.Errorf("%q: want error, got nil", s)
		}
	}
}

func TestFieldsValidate(t *testing.T) {
	name, blank := "G301", "  "
	zero, id := int64(0), int64(7)
	offScale := 3.5
	var zeroDate time.Time

	for _, tc := range []struct {
		id    string
		kind  model.Kind
		f     model.Fields
		field string // "" when valid
	}{
		{"group name", model.KindGroup, model.Fields{Name: &name}, ""},
		{"blank name", model.KindGroup, model.Fields{Name: &blank}, "name"},
		{"group teacher", model.KindGroup, model.Fields{TeacherID: &id}, "teacher_id"},
		{"student group", model.KindStudent, model.Fields{GroupID: &id}, ""},
		{"zero group", model.KindStudent, model.Fields{GroupID: &zero}, "group_id"},
		{"off scale", model.KindScore, model.Fields{Score: &offScale}, "score"},
		{"zero date", model.KindScore, model.Fields{Date: &zeroDate}, "date"},
		{"unknown kind", model.Kind(99), model.Fields{Name: &name}, "model"},
	} {
		err := tc.f.Validate(tc.kind)
		if tc.field == "" {
			if err != nil {
				t.Errorf("%s: want nil, got %v", tc.id, err)
			}
			continue
		}
		var ve *model.ErrValidation
		if !errors.As(err, &ve) {
			t.Errorf("%s: want *ErrValidation, got %v", tc.id, err)
		} else if ve.Field != tc.field {
			t.Errorf("%s: field: want %q, got %q", tc.id, tc.field, ve.Field)
		}
	}
}

func TestFieldsAssignments(t *testing.T) {
	score, date := 3.7, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	cols, args := model.Fields{Date: &date, Score: &score}.Assignments()
	if len(cols) != 2 || cols[0] != "score" || cols[1] != "date" {
		t.Fatalf("cols: want [score date], got %v", cols)
	}
	if args[1] != "2024-02-29" {
		t.Errorf("date: want %q, got %v", "2024-02-29", args[1])
	}
	if !(model.Fields{}).IsEmpty() {
		t.Errorf("empty: want IsEmpty")
	}
}

func TestErrorCodes(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code string
		exit int
	}{
		{nil, "", model.ExitOK},
		{&model.ErrValidation{Field: "name", Msg: "must not be empty"}, model.ErrCodeValidation, model.ExitValidation},
		{&model.ErrNotFound{Kind: model.KindStudent, ID: 9}, model.ErrCodeNotFound, model.ExitNotFound},
		{&model.ErrDuplicate{Kind: model.KindGroup, Name: "G301"}, model.ErrCodeDuplicate, model.ExitValidation},
		{&model.ErrIntegrity{Op: "delete", Msg: "referenced"}, model.ErrCodeIntegrity, model.ExitStorage},
		{&model.ErrDatabase{Op: "scan", Err: errors.New("disk")}, model.ErrCodeDatabase, model.ExitStorage},
		{fmt.Errorf("report 2: %w", &model.ErrNotFound{Kind: model.KindSubject, Name: "Art"}), model.ErrCodeNotFound, model.ExitNotFound},
		{errors.New("boom"), model.ErrCodeUnknown, model.ExitStorage},
	} {
		if got := model.ErrorCode(tc.err); got != tc.code {
			t.Errorf("%v: code: want %q, got %q", tc.err, tc.code, got)
		}
		if got := model.ExitCode(tc.err); got != tc.exit {
			t.Errorf("%v: exit: want %d, got %d", tc.err, tc.exit, got)
		}
	}
}

func TestErrNotFoundMessage(t *testing.T) {
	if got, want := (&model.ErrNotFound{Kind: model.KindGroup, Name: "G301"}).Error(), `Group "G301": not found`; got != want {
		t.Errorf("by name: want %q, got %q", want, got)
	}
	if got, want := (&model.ErrNotFound{Kind: model.KindScore, ID: 3}).Error(), `Score 3: not found`; got != want {
		t.Errorf("by id: want %q, got %q", want, got)
	}
}
