// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import "context"

// Store is typed record access over the five entity tables.
//
// Every method returns *ErrNotFound for ids that do not exist, *ErrIntegrity
// for foreign keys that do not resolve, *ErrValidation for malformed values
// and *ErrDatabase for anything else. Each write is atomic.
type Store interface {
	Insert(ctx context.Context, rec Record) (int64, error)
	Get(ctx context.Context, kind Kind, id int64) (Record, error)
	Update(ctx context.Context, kind Kind, id int64, f Fields) (Record, error)
	Delete(ctx context.Context, kind Kind, id int64) error
	DeleteCascade(ctx context.Context, kind Kind, id int64) (map[Kind]int64, error)
	Scan(ctx context.Context, kind Kind) ([]Record, error)

	// lookups

	FindGroupByName(ctx context.Context, name string) (*Group, error)
	FindTeacherByFullName(ctx context.Context, fullName string) (*Teacher, error)
	FindStudentByFullName(ctx context.Context, fullName string) (*Student, error)
	FindSubjectByName(ctx context.Context, name string) (*Subject, error)
}

// Stats holds row counts per table.
type Stats struct {
	Groups   int64
	Teachers int64
	Students int64
	Subjects int64
	Scores   int64
}
