// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mdhender/gradebook/model"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries implements model.Store against a database or a transaction.
// Outside of InTx its writes are not wrapped in a transaction, so callers
// normally go through SQLiteStore.
type Queries struct {
	db dbtx
}

// QueryContext exposes the read path for the report engine.
func (q *Queries) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, query, args...)
}

// QueryRowContext exposes the read path for the report engine.
func (q *Queries) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, query, args...)
}

// Insert adds a record and sets its ID.
func (q *Queries) Insert(ctx context.Context, rec model.Record) (int64, error) {
	if err := model.Validate(rec); err != nil {
		return 0, err
	}
	switch r := rec.(type) {
	case *model.Group:
		return q.insertGroup(ctx, r)
	case *model.Teacher:
		return q.insertTeacher(ctx, r)
	case *model.Student:
		return q.insertStudent(ctx, r)
	case *model.Subject:
		return q.insertSubject(ctx, r)
	case *model.Score:
		return q.insertScore(ctx, r)
	}
	return 0, &model.ErrValidation{Field: "record", Msg: fmt.Sprintf("unsupported record type %T", rec)}
}

func (q *Queries) insertGroup(ctx context.Context, g *model.Group) (int64, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := q.requireUniqueGroupName(ctx, g.Name, 0); err != nil {
		return 0, err
	}
	const query = `INSERT INTO "groups" (name) VALUES (?)`
	return q.insert(ctx, "insert group", &g.ID, query, g.Name)
}

func (q *Queries) insertTeacher(ctx context.Context, t *model.Teacher) (int64, error) {
	t.FirstName, t.LastName = strings.TrimSpace(t.FirstName), strings.TrimSpace(t.LastName)
	const query = `INSERT INTO teachers (first_name, last_name) VALUES (?, ?)`
	return q.insert(ctx, "insert teacher", &t.ID, query, t.FirstName, t.LastName)
}

func (q *Queries) insertStudent(ctx context.Context, s *model.Student) (int64, error) {
	s.FirstName, s.LastName = strings.TrimSpace(s.FirstName), strings.TrimSpace(s.LastName)
	if err := q.requireRef(ctx, "insert student", model.KindGroup, s.GroupID); err != nil {
		return 0, err
	}
	const query = `INSERT INTO students (first_name, last_name, group_id) VALUES (?, ?, ?)`
	return q.insert(ctx, "insert student", &s.ID, query, s.FirstName, s.LastName, s.GroupID)
}

func (q *Queries) insertSubject(ctx context.Context, s *model.Subject) (int64, error) {
	s.Name = strings.TrimSpace(s.Name)
	if err := q.requireRef(ctx, "insert subject", model.KindTeacher, s.TeacherID); err != nil {
		return 0, err
	}
	const query = `INSERT INTO subjects (name, teacher_id) VALUES (?, ?)`
	return q.insert(ctx, "insert subject", &s.ID, query, s.Name, s.TeacherID)
}

func (q *Queries) insertScore(ctx context.Context, s *model.Score) (int64, error) {
	if err := q.requireRef(ctx, "insert score", model.KindStudent, s.StudentID); err != nil {
		return 0, err
	}
	if err := q.requireRef(ctx, "insert score", model.KindSubject, s.SubjectID); err != nil {
		return 0, err
	}
	const query = `INSERT INTO scores (score, date, student_id, subject_id) VALUES (?, ?, ?, ?)`
	return q.insert(ctx, "insert score", &s.ID, query, s.Value, s.Date.Format(model.DateLayout), s.StudentID, s.SubjectID)
}

func (q *Queries) insert(ctx context.Context, op string, id *int64, query string, args ...any) (int64, error) {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dbError(op, err)
	}
	if *id, err = result.LastInsertId(); err != nil {
		return 0, dbError(op, err)
	}
	return *id, nil
}

// Get returns the row with the given id.
func (q *Queries) Get(ctx context.Context, kind model.Kind, id int64) (model.Record, error) {
	if err := checkKey(kind, id); err != nil {
		return nil, err
	}
	query := selectAll(kind) + ` WHERE id = ?`
	rec, err := scanRecord(kind, q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.ErrNotFound{Kind: kind, ID: id}
	} else if err != nil {
		return nil, dbError("get "+kind.Table(), err)
	}
	return rec, nil
}

// Scan returns every row of the given kind in id order.
func (q *Queries) Scan(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	if !kind.Valid() {
		return nil, &model.ErrValidation{Field: "model", Msg: fmt.Sprintf("unknown model %v", kind)}
	}
	rows, err := q.db.QueryContext(ctx, selectAll(kind)+` ORDER BY id`)
	if err != nil {
		return nil, dbError("scan "+kind.Table(), err)
	}
	defer rows.Close()

	var recs []model.Record
	for rows.Next() {
		rec, err := scanRecord(kind, rows)
		if err != nil {
			return nil, dbError("scan "+kind.Table(), err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("scan "+kind.Table(), err)
	}
	return recs, nil
}

// Update applies the set fields of f and returns the updated record.
// An empty f returns the current record unchanged.
func (q *Queries) Update(ctx context.Context, kind model.Kind, id int64, f model.Fields) (model.Record, error) {
	if err := checkKey(kind, id); err != nil {
		return nil, err
	}
	if err := f.Validate(kind); err != nil {
		return nil, err
	}
	if _, err := q.Get(ctx, kind, id); err != nil {
		return nil, err
	}
	if f.IsEmpty() {
		return q.Get(ctx, kind, id)
	}

	op := "update " + kind.Table()
	if f.Name != nil && kind == model.KindGroup {
		if err := q.requireUniqueGroupName(ctx, strings.TrimSpace(*f.Name), id); err != nil {
			return nil, err
		}
	}
	for _, ref := range []struct {
		kind model.Kind
		id   *int64
	}{
		{model.KindGroup, f.GroupID},
		{model.KindTeacher, f.TeacherID},
		{model.KindStudent, f.StudentID},
		{model.KindSubject, f.SubjectID},
	} {
		if ref.id == nil {
			continue
		}
		if err := q.requireRef(ctx, op, ref.kind, *ref.id); err != nil {
			return nil, err
		}
	}

	cols, args := f.Assignments()
	for i := range cols {
		cols[i] += " = ?"
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, quoteTable(kind), strings.Join(cols, ", "))
	if _, err := q.db.ExecContext(ctx, query, append(args, id)...); err != nil {
		return nil, dbError(op, err)
	}
	return q.Get(ctx, kind, id)
}

// dependent is a table holding a foreign key to another table.
type dependent struct {
	kind   model.Kind
	column string
}

// dependents returns the tables that reference rows of kind.
func dependents(kind model.Kind) []dependent {
	switch kind {
	case model.KindGroup:
		return []dependent{{model.KindStudent, "group_id"}}
	case model.KindTeacher:
		return []dependent{{model.KindSubject, "teacher_id"}}
	case model.KindStudent:
		return []dependent{{model.KindScore, "student_id"}}
	case model.KindSubject:
		return []dependent{{model.KindScore, "subject_id"}}
	}
	return nil
}

// Delete removes a row. Rows that are still referenced are not deleted.
func (q *Queries) Delete(ctx context.Context, kind model.Kind, id int64) error {
	if err := checkKey(kind, id); err != nil {
		return err
	}
	op := "delete " + kind.Table()
	if ok, err := q.exists(ctx, kind, id); err != nil {
		return err
	} else if !ok {
		return &model.ErrNotFound{Kind: kind, ID: id}
	}
	for _, dep := range dependents(kind) {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, quoteTable(dep.kind), dep.column)
		var n int64
		if err := q.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
			return dbError(op, err)
		}
		if n != 0 {
			return &model.ErrIntegrity{Op: op, Msg: fmt.Sprintf("%s %d is referenced by %d %s rows", kind, id, n, dep.kind.Table())}
		}
	}
	_, err := q.deleteWhere(ctx, kind, "id = ?", id)
	return err
}

// DeleteCascade removes a row together with every row that depends on it,
// returning the number of rows removed per kind.
func (q *Queries) DeleteCascade(ctx context.Context, kind model.Kind, id int64) (map[model.Kind]int64, error) {
	if err := checkKey(kind, id); err != nil {
		return nil, err
	}
	if ok, err := q.exists(ctx, kind, id); err != nil {
		return nil, err
	} else if !ok {
		return nil, &model.ErrNotFound{Kind: kind, ID: id}
	}

	removed := map[model.Kind]int64{}
	del := func(k model.Kind, where string, args ...any) error {
		n, err := q.deleteWhere(ctx, k, where, args...)
		removed[k] += n
		return err
	}

	var err error
	switch kind {
	case model.KindGroup:
		if err = del(model.KindScore, `student_id IN (SELECT id FROM students WHERE group_id = ?)`, id); err == nil {
			if err = del(model.KindStudent, `group_id = ?`, id); err == nil {
				err = del(model.KindGroup, `id = ?`, id)
			}
		}
	case model.KindTeacher:
		if err = del(model.KindScore, `subject_id IN (SELECT id FROM subjects WHERE teacher_id = ?)`, id); err == nil {
			if err = del(model.KindSubject, `teacher_id = ?`, id); err == nil {
				err = del(model.KindTeacher, `id = ?`, id)
			}
		}
	case model.KindStudent:
		if err = del(model.KindScore, `student_id = ?`, id); err == nil {
			err = del(model.KindStudent, `id = ?`, id)
		}
	case model.KindSubject:
		if err = del(model.KindScore, `subject_id = ?`, id); err == nil {
			err = del(model.KindSubject, `id = ?`, id)
		}
	case model.KindScore:
		err = del(model.KindScore, `id = ?`, id)
	}
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (q *Queries) deleteWhere(ctx context.Context, kind model.Kind, where string, args ...any) (int64, error) {
	op := "delete " + kind.Table()
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s`, quoteTable(kind), where)
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dbError(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, dbError(op, err)
	}
	return n, nil
}

// FindGroupByName returns the first group with the given name.
func (q *Queries) FindGroupByName(ctx context.Context, name string) (*model.Group, error) {
	rec, err := q.findOne(ctx, model.KindGroup, name, `name = ?`)
	if err != nil {
		return nil, err
	}
	return rec.(*model.Group), nil
}

// FindTeacherByFullName returns the first teacher whose "first last" name matches.
func (q *Queries) FindTeacherByFullName(ctx context.Context, fullName string) (*model.Teacher, error) {
	rec, err := q.findOne(ctx, model.KindTeacher, fullName, `first_name || ' ' || last_name = ?`)
	if err != nil {
		return nil, err
	}
	return rec.(*model.Teacher), nil
}

// FindStudentByFullName returns the first student whose "first last" name matches.
func (q *Queries) FindStudentByFullName(ctx context.Context, fullName string) (*model.Student, error) {
	rec, err := q.findOne(ctx, model.KindStudent, fullName, `first_name || ' ' || last_name = ?`)
	if err != nil {
		return nil, err
	}
	return rec.(*model.Student), nil
}

// FindSubjectByName returns the first subject with the given name.
func (q *Queries) FindSubjectByName(ctx context.Context, name string) (*model.Subject, error) {
	rec, err := q.findOne(ctx, model.KindSubject, name, `name = ?`)
	if err != nil {
		return nil, err
	}
	return rec.(*model.Subject), nil
}

func (q *Queries) findOne(ctx context.Context, kind model.Kind, name, where string) (model.Record, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, &model.ErrValidation{Field: "name", Msg: "must not be empty"}
	}
	query := selectAll(kind) + ` WHERE ` + where + ` ORDER BY id LIMIT 1`
	rec, err := scanRecord(kind, q.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.ErrNotFound{Kind: kind, Name: name}
	} else if err != nil {
		return nil, dbError("find "+kind.Table(), err)
	}
	return rec, nil
}

func (q *Queries) exists(ctx context.Context, kind model.Kind, id int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = ?)`, quoteTable(kind))
	var found int
	if err := q.db.QueryRowContext(ctx, query, id).Scan(&found); err != nil {
		return false, dbError("exists "+kind.Table(), err)
	}
	return found == 1, nil
}

// requireRef fails with an integrity error when the referenced row does not exist.
func (q *Queries) requireRef(ctx context.Context, op string, kind model.Kind, id int64) error {
	ok, err := q.exists(ctx, kind, id)
	if err != nil {
		return err
	} else if !ok {
		return &model.ErrIntegrity{Op: op, Msg: fmt.Sprintf("%s %d does not exist", kind, id)}
	}
	return nil
}

// requireUniqueGroupName fails when another group (not self) already uses name.
func (q *Queries) requireUniqueGroupName(ctx context.Context, name string, self int64) error {
	const query = `SELECT EXISTS (SELECT 1 FROM "groups" WHERE name = ? AND id != ?)`
	var found int
	if err := q.db.QueryRowContext(ctx, query, name, self).Scan(&found); err != nil {
		return dbError("check group name", err)
	}
	if found == 1 {
		return &model.ErrDuplicate{Kind: model.KindGroup, Name: name}
	}
	return nil
}

func checkKey(kind model.Kind, id int64) error {
	if !kind.Valid() {
		return &model.ErrValidation{Field: "model", Msg: fmt.Sprintf("unknown model %v", kind)}
	} else if id <= 0 {
		return &model.ErrValidation{Field: "id", Msg: fmt.Sprintf("%d is not a valid id", id)}
	}
	return nil
}

func selectAll(kind model.Kind) string {
	switch kind {
	case model.KindGroup:
		return `SELECT id, name FROM "groups"`
	case model.KindTeacher:
		return `SELECT id, first_name, last_name FROM teachers`
	case model.KindStudent:
		return `SELECT id, first_name, last_name, group_id FROM students`
	case model.KindSubject:
		return `SELECT id, name, teacher_id FROM subjects`
	case model.KindScore:
		return `SELECT id, score, date, student_id, subject_id FROM scores`
	}
	panic(fmt.Sprintf("assert(kind != %d)", int(kind)))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(kind model.Kind, row scanner) (model.Record, error) {
	switch kind {
	case model.KindGroup:
		var g model.Group
		if err := row.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		return &g, nil
	case model.KindTeacher:
		var t model.Teacher
		if err := row.Scan(&t.ID, &t.FirstName, &t.LastName); err != nil {
			return nil, err
		}
		return &t, nil
	case model.KindStudent:
		var s model.Student
		if err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.GroupID); err != nil {
			return nil, err
		}
		return &s, nil
	case model.KindSubject:
		var s model.Subject
		if err := row.Scan(&s.ID, &s.Name, &s.TeacherID); err != nil {
			return nil, err
		}
		return &s, nil
	case model.KindScore:
		var s model.Score
		var date string
		if err := row.Scan(&s.ID, &s.Value, &date, &s.StudentID, &s.SubjectID); err != nil {
			return nil, err
		}
		t, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("score %d: date %q: %w", s.ID, date, err)
		}
		s.Date = t
		return &s, nil
	}
	return nil, fmt.Errorf("unknown kind %d", int(kind))
}
