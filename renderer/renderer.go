// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package renderer turns rows of values into bordered text tables.
package renderer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type Renderer struct {
	border    lipgloss.Border
	title     string
	precision int
}

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		border:    lipgloss.NormalBorder(),
		precision: 2,
	}
	for _, option := range options {
		err := option(r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Render returns the table with the columns in the given order.
// Each row must have one value per column; short rows are padded with blanks.
func (r *Renderer) Render(columns []string, rows [][]any) string {
	t := table.New().Border(r.border).Headers(columns...)
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = r.FormatValue(row[i])
			}
		}
		t.Row(cells...)
	}

	var sb strings.Builder
	if r.title != "" {
		sb.WriteString(r.title)
		sb.WriteByte('\n')
	}
	sb.WriteString(t.String())
	sb.WriteByte('\n')
	return sb.String()
}

// FormatValue formats one table cell.
func (r *Renderer) FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', r.precision, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', r.precision, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		return v.Format("2006-01-02")
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
