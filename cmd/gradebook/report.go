// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mdhender/gradebook/handlers"
	"github.com/mdhender/gradebook/model"
	"github.com/mdhender/gradebook/reports"
	"github.com/mdhender/gradebook/renderer"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func cmdReport(e *env) *cobra.Command {
	var p reports.Params
	border, output := "", ""
	topN, precision := 0, 2
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&p.Group, "group", p.Group, "group name")
		cmd.Flags().StringVar(&p.Subject, "subject", p.Subject, "subject name")
		cmd.Flags().StringVar(&p.Student, "student", p.Student, `student full name, "first_name last_name"`)
		cmd.Flags().StringVar(&p.Teacher, "teacher", p.Teacher, `teacher full name, "first_name last_name"`)
		cmd.Flags().StringVar(&border, "border", border, "table border [normal, rounded, double, thick, block, hidden]")
		cmd.Flags().StringVarP(&output, "output", "o", output, "write the report to a file instead of stdout")
		cmd.Flags().IntVar(&topN, "top", topN, "number of students in report 1 (default from config)")
		cmd.Flags().IntVar(&precision, "precision", precision, "decimals shown for averages")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "report <1..12|all>",
		Short: "run a report",
		Long:  "Run one of the numbered reports, or all of them.\n\n" + catalogUsage(),
		Example: `  gradebook report 1
  gradebook report 2 --subject Mathematics
  gradebook report 11 --student "John Smith" --teacher "Jane Doe"
  gradebook report all --group G301 --subject Mathematics --output reports.txt`,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var numbers []int
			runAll := strings.EqualFold(args[0], "all")
			if runAll {
				for _, r := range reports.Catalog {
					numbers = append(numbers, r.Number)
				}
			} else {
				n, err := strconv.Atoi(args[0])
				if err == nil {
					_, err = reports.Lookup(n)
				} else {
					err = &model.ErrValidation{Field: "report", Msg: fmt.Sprintf("%q is not a report number", args[0])}
				}
				if err != nil {
					return e.finish(handlers.Status(err))
				}
				numbers = append(numbers, n)
			}

			if _, err := e.renderer(border, renderer.WithPrecision(precision)); err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				topN = e.cfg.Reports.TopN
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			defer s.Close()
			engine, err := reports.New(s, reports.WithTopN(topN))
			if err != nil {
				return e.finish(handlers.Status(err))
			}
			if e.verbose {
				checkParams(cmd.Context(), s, p)
			}

			var sb strings.Builder
			code := model.ExitOK
			var lastErr error
			for _, n := range numbers {
				report, _ := reports.Lookup(n)
				if runAll && !hasParams(report, p) {
					if e.verbose {
						log.Printf("report %d: skipped, needs --%s\n", n, strings.Join(report.Params, ", --"))
					}
					continue
				}
				text, err := runReport(cmd.Context(), e, engine, report, p, border, precision)
				if err != nil {
					res := handlers.Status(err)
					fmt.Fprintf(&sb, "%s\n", res.Status)
					if res.Code > code {
						code, lastErr = res.Code, err
					}
					continue
				}
				sb.WriteString(text)
			}

			if output == "" {
				fmt.Print(sb.String())
			} else {
				if err := afero.WriteFile(e.fs, output, []byte(sb.String()), 0o644); err != nil {
					return &exitError{code: model.ExitStorage, err: fmt.Errorf("report: %w", err)}
				}
				if !e.quiet {
					log.Printf("report: wrote %s\n", output)
				}
			}
			if code != model.ExitOK {
				return &exitError{code: code, err: lastErr, reported: true}
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatalf("report: %v\n", err)
	}
	return cmd
}

// runReport runs one report and renders it as a titled table, or "None" for a missing value.
func runReport(ctx context.Context, e *env, engine *reports.Engine, report reports.Report, p reports.Params, border string, precision int) (string, error) {
	res, err := engine.Run(ctx, report.Number, p)
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("%d. %s", report.Number, report.Title)
	if res.Empty() {
		if res.Null {
			return title + "\nNone\n", nil
		}
		if e.verbose {
			log.Printf("report %d: no rows\n", report.Number)
		}
	}
	r, err := e.renderer(border, renderer.WithTitle(title), renderer.WithPrecision(precision))
	if err != nil {
		return "", err
	}
	return r.Render(res.Columns, res.Rows), nil
}

// paramStore is the lookups checkParams needs.
type paramStore interface {
	FindGroupByName(ctx context.Context, name string) (*model.Group, error)
	FindTeacherByFullName(ctx context.Context, fullName string) (*model.Teacher, error)
	FindStudentByFullName(ctx context.Context, fullName string) (*model.Student, error)
	FindSubjectByName(ctx context.Context, name string) (*model.Subject, error)
}

// checkParams logs the report parameters that name no existing row.
// A one-word teacher is a last name and is not looked up.
func checkParams(ctx context.Context, s paramStore, p reports.Params) []string {
	var missing []string
	check := func(param, value string, find func() error) {
		if strings.TrimSpace(value) == "" {
			return
		}
		if err := find(); err != nil {
			missing = append(missing, param)
			log.Printf("report: --%s %q: %v\n", param, value, err)
		}
	}
	check("group", p.Group, func() error {
		_, err := s.FindGroupByName(ctx, p.Group)
		return err
	})
	check("subject", p.Subject, func() error {
		_, err := s.FindSubjectByName(ctx, p.Subject)
		return err
	})
	check("student", p.Student, func() error {
		_, err := s.FindStudentByFullName(ctx, p.Student)
		return err
	})
	if len(strings.Fields(p.Teacher)) > 1 {
		check("teacher", p.Teacher, func() error {
			_, err := s.FindTeacherByFullName(ctx, p.Teacher)
			return err
		})
	}
	return missing
}

// hasParams is true when every parameter the report reads is set.
func hasParams(report reports.Report, p reports.Params) bool {
	for _, name := range report.Params {
		var value string
		switch name {
		case "group":
			value = p.Group
		case "subject":
			value = p.Subject
		case "student":
			value = p.Student
		case "teacher":
			value = p.Teacher
		}
		if strings.TrimSpace(value) == "" {
			return false
		}
	}
	return true
}

func catalogUsage() string {
	var sb strings.Builder
	sb.WriteString("Reports:\n")
	for _, r := range reports.Catalog {
		fmt.Fprintf(&sb, "  %2d  %s", r.Number, r.Title)
		if len(r.Params) != 0 {
			fmt.Fprintf(&sb, " (--%s)", strings.Join(r.Params, ", --"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
