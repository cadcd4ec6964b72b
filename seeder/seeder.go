// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package seeder fills an empty gradebook with fake data.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/mdhender/gradebook/model"
)

// Subjects are the subject names every seed creates.
var Subjects = []string{
	"Mathematics",
	"Physics",
	"History",
	"Geography",
	"Computer Science",
	"Biology",
	"Chemistry",
	"Literature",
	"Art",
}

// scoreWeights biases generated scores toward the middle of the scale.
// One weight per entry of model.ScoreScale.
var scoreWeights = []float32{5, 6, 7, 8, 8, 8, 6, 3, 2, 1, 1}

// Inserter is the store operations the seeder needs.
// Pass the Queries of a transaction to make the whole seed one unit of work.
type Inserter interface {
	Insert(ctx context.Context, rec model.Record) (int64, error)
	FindGroupByName(ctx context.Context, name string) (*model.Group, error)
}

// groupNames is the number of names in the G300-G399 range.
const groupNames = 100

// Options sizes the generated data.
type Options struct {
	Groups           int
	Teachers         int
	Students         int
	ScoresPerStudent int
	RandomSeed       uint64    // 0 picks a random seed
	Now              time.Time // score dates fall in the two years before Now; zero means time.Now
}

// Summary counts the rows created.
type Summary struct {
	Groups   int
	Teachers int
	Students int
	Subjects int
	Scores   int
}

func (o Options) validate() error {
	switch {
	case o.Groups < 0 || o.Teachers < 0 || o.Students < 0 || o.ScoresPerStudent < 0:
		return &model.ErrValidation{Field: "seed", Msg: "counts must not be negative"}
	case o.Groups > groupNames:
		return &model.ErrValidation{Field: "groups", Msg: fmt.Sprintf("%d: group names G300-G399 allow at most 100", o.Groups)}
	case o.Students > 0 && o.Groups == 0:
		return &model.ErrValidation{Field: "groups", Msg: "students need at least one group"}
	case o.ScoresPerStudent > 0 && o.Students > 0 && o.Teachers == 0:
		return &model.ErrValidation{Field: "teachers", Msg: "scores need subjects, and subjects need at least one teacher"}
	}
	return nil
}

// Seed inserts groups, teachers, students, subjects and scores.
// Subjects are created only when there is at least one teacher to teach them.
func Seed(ctx context.Context, s Inserter, opts Options) (Summary, error) {
	var sum Summary
	if err := opts.validate(); err != nil {
		return sum, err
	}
	f := gofakeit.New(opts.RandomSeed)
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var groupIDs []int64
	used := map[string]bool{}
	for len(groupIDs) < opts.Groups {
		if len(used) == groupNames {
			return sum, &model.ErrValidation{Field: "groups", Msg: fmt.Sprintf("%d: not enough unused group names G300-G399", opts.Groups)}
		}
		name := fmt.Sprintf("G%d", f.Number(300, 399))
		if used[name] {
			continue
		}
		used[name] = true
		// names already in the database are skipped
		if _, err := s.FindGroupByName(ctx, name); err == nil {
			continue
		} else if !errors.As(err, new(*model.ErrNotFound)) {
			return sum, fmt.Errorf("seed group: %w", err)
		}
		id, err := s.Insert(ctx, &model.Group{Name: name})
		if err != nil {
			return sum, fmt.Errorf("seed group: %w", err)
		}
		groupIDs = append(groupIDs, id)
		sum.Groups++
	}

	var teacherIDs []int64
	for i := 0; i < opts.Teachers; i++ {
		id, err := s.Insert(ctx, &model.Teacher{FirstName: f.FirstName(), LastName: f.LastName()})
		if err != nil {
			return sum, fmt.Errorf("seed teacher: %w", err)
		}
		teacherIDs = append(teacherIDs, id)
		sum.Teachers++
	}

	var studentIDs []int64
	for i := 0; i < opts.Students; i++ {
		student := &model.Student{
			FirstName: f.FirstName(),
			LastName:  f.LastName(),
			GroupID:   groupIDs[f.Number(0, len(groupIDs)-1)],
		}
		id, err := s.Insert(ctx, student)
		if err != nil {
			return sum, fmt.Errorf("seed student: %w", err)
		}
		studentIDs = append(studentIDs, id)
		sum.Students++
	}

	var subjectIDs []int64
	if len(teacherIDs) != 0 {
		for _, name := range Subjects {
			subject := &model.Subject{Name: name, TeacherID: teacherIDs[f.Number(0, len(teacherIDs)-1)]}
			id, err := s.Insert(ctx, subject)
			if err != nil {
				return sum, fmt.Errorf("seed subject: %w", err)
			}
			subjectIDs = append(subjectIDs, id)
			sum.Subjects++
		}
	}

	options := make([]any, len(model.ScoreScale))
	for i, v := range model.ScoreScale {
		options[i] = v
	}
	from := now.AddDate(-2, 0, 0)
	for _, studentID := range studentIDs {
		// every score of a student shares one date
		y, m, d := f.DateRange(from, now).Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		for i := 0; i < opts.ScoresPerStudent; i++ {
			value, err := f.Weighted(options, scoreWeights)
			if err != nil {
				return sum, fmt.Errorf("seed score: %w", err)
			}
			score := &model.Score{
				Value:     value.(float64),
				Date:      date,
				StudentID: studentID,
				SubjectID: subjectIDs[f.Number(0, len(subjectIDs)-1)],
			}
			if _, err := s.Insert(ctx, score); err != nil {
				return sum, fmt.Errorf("seed score: %w", err)
			}
			sum.Scores++
		}
	}

	return sum, nil
}
