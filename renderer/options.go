// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Option func(r *Renderer) error

// WithBorder selects the table border: normal, rounded, double, thick, block or hidden.
func WithBorder(name string) Option {
	return func(r *Renderer) error {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "normal":
			r.border = lipgloss.NormalBorder()
		case "rounded":
			r.border = lipgloss.RoundedBorder()
		case "double":
			r.border = lipgloss.DoubleBorder()
		case "thick":
			r.border = lipgloss.ThickBorder()
		case "block":
			r.border = lipgloss.BlockBorder()
		case "hidden":
			r.border = lipgloss.HiddenBorder()
		default:
			return fmt.Errorf("unknown border %q", name)
		}
		return nil
	}
}

// WithTitle prints a title line above the table.
func WithTitle(title string) Option {
	return func(r *Renderer) error {
		r.title = title
		return nil
	}
}

// WithPrecision sets the number of decimals used for float cells.
func WithPrecision(n int) Option {
	return func(r *Renderer) error {
		if n < 0 {
			return fmt.Errorf("precision %d: must not be negative", n)
		}
		r.precision = n
		return nil
	}
}
