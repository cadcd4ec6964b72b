// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mdhender/gradebook/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r, err := renderer.New()
	require.NoError(t, err)

	out := r.Render([]string{"id", "fullname", "group_id"}, [][]any{
		{int64(1), "John Smith", int64(1)},
		{int64(2), "Ann Bell", int64(2)},
	})
	for _, want := range []string{"id", "fullname", "group_id", "John Smith", "Ann Bell"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "fullname"), strings.Index(out, "John Smith"), "header before rows")
	assert.Less(t, strings.Index(out, "John Smith"), strings.Index(out, "Ann Bell"), "rows in order")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRenderEmpty(t *testing.T) {
	r, err := renderer.New()
	require.NoError(t, err)

	out := r.Render([]string{"id", "name"}, [][]any{})
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "name")
}

func TestRenderTitle(t *testing.T) {
	r, err := renderer.New(renderer.WithTitle("1. Top students"), renderer.WithBorder("rounded"))
	require.NoError(t, err)

	out := r.Render([]string{"student", "average"}, [][]any{{"John Smith", 4.0}})
	assert.True(t, strings.HasPrefix(out, "1. Top students\n"))
	assert.Contains(t, out, "4.00")
}

func TestFormatValue(t *testing.T) {
	r, err := renderer.New()
	require.NoError(t, err)

	assert.Equal(t, "3.67", r.FormatValue(3.6666))
	assert.Equal(t, "42", r.FormatValue(int64(42)))
	assert.Equal(t, "7", r.FormatValue(7))
	assert.Equal(t, "", r.FormatValue(nil))
	assert.Equal(t, "2024-01-01", r.FormatValue(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	r, err = renderer.New(renderer.WithPrecision(1))
	require.NoError(t, err)
	assert.Equal(t, "3.7", r.FormatValue(3.7))
}

func TestOptionErrors(t *testing.T) {
	_, err := renderer.New(renderer.WithBorder("wavy"))
	assert.Error(t, err)

	_, err = renderer.New(renderer.WithPrecision(-1))
	assert.Error(t, err)

	for _, name := range []string{"normal", "rounded", "double", "thick", "block", "hidden", "", " Rounded "} {
		_, err := renderer.New(renderer.WithBorder(name))
		assert.NoError(t, err, name)
	}
}

func TestBorders(t *testing.T) {
	columns, rows := []string{"group", "average"}, [][]any{{"G301", 3.5}}

	normal, err := renderer.New(renderer.WithBorder("normal"))
	require.NoError(t, err)
	assert.Contains(t, normal.Render(columns, rows), "┌")

	double, err := renderer.New(renderer.WithBorder("double"))
	require.NoError(t, err)
	assert.Contains(t, double.Render(columns, rows), "╔")

	hidden, err := renderer.New(renderer.WithBorder("hidden"))
	require.NoError(t, err)
	out := hidden.Render(columns, rows)
	assert.NotContains(t, out, "┌")
	assert.Contains(t, out, "G301")
	assert.Contains(t, out, "3.50")

	// only borders the table library provides are accepted
	for _, name := range []string{"ascii", "markdown"} {
		_, err := renderer.New(renderer.WithBorder(name))
		assert.Error(t, err, name)
	}
}
