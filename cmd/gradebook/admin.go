// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mdhender/gradebook"
	"github.com/mdhender/gradebook/config"
	"github.com/mdhender/gradebook/handlers"
	"github.com/mdhender/gradebook/model"
	"github.com/mdhender/gradebook/seeder"
	store "github.com/mdhender/gradebook/stores/sqlite"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func cmdSeed(e *env) *cobra.Command {
	var opts seeder.Options
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&opts.Groups, "groups", opts.Groups, "number of groups (default from config)")
		cmd.Flags().IntVar(&opts.Teachers, "teachers", opts.Teachers, "number of teachers (default from config)")
		cmd.Flags().IntVar(&opts.Students, "students", opts.Students, "number of students (default from config)")
		cmd.Flags().IntVar(&opts.ScoresPerStudent, "scores", opts.ScoresPerStudent, "scores per student (default from config)")
		cmd.Flags().Uint64Var(&opts.RandomSeed, "random-seed", opts.RandomSeed, "seed for the fake data generator, 0 for random")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "seed",
		Short:        "fill the database with fake data",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("groups") {
				opts.Groups = e.cfg.Seed.Groups
			}
			if !cmd.Flags().Changed("teachers") {
				opts.Teachers = e.cfg.Seed.Teachers
			}
			if !cmd.Flags().Changed("students") {
				opts.Students = e.cfg.Seed.Students
			}
			if !cmd.Flags().Changed("scores") {
				opts.ScoresPerStudent = e.cfg.Seed.ScoresPerStudent
			}
			if !cmd.Flags().Changed("random-seed") {
				opts.RandomSeed = e.cfg.Seed.RandomSeed
			}

			s, err := e.open()
			if err != nil {
				return err
			}
			defer s.Close()

			started := time.Now()
			var sum seeder.Summary
			err = s.InTx(cmd.Context(), func(q *store.Queries) error {
				sum, err = seeder.Seed(cmd.Context(), q, opts)
				return err
			})
			if err != nil {
				return e.finish(handlers.Status(err))
			}
			if !e.quiet {
				log.Printf("seed: %d groups, %d teachers, %d students, %d subjects, %s scores in %v\n",
					sum.Groups, sum.Teachers, sum.Students, sum.Subjects, humanize.Comma(int64(sum.Scores)), time.Since(started))
			}
			return e.finish(handlers.Status(nil))
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatalf("seed: %v\n", err)
	}
	return cmd
}

func cmdInitDB(e *env) *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "init-db [path]",
		Short:        "create a new database file with the schema",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.databasePath()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" || path == ":memory:" {
				return &exitError{code: model.ExitValidation, err: fmt.Errorf("init-db: a database file is required")}
			}
			if err := store.InitDatabase(path); err != nil {
				return &exitError{code: model.ExitStorage, err: fmt.Errorf("init-db: %w", err)}
			}
			if !e.quiet {
				log.Printf("init-db: created %s\n", path)
			}
			return nil
		},
	}
	return cmd
}

func cmdCompactDB(e *env) *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "compact-db [path]",
		Short:        "checkpoint and vacuum the database file",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.databasePath()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" || path == ":memory:" {
				return &exitError{code: model.ExitValidation, err: fmt.Errorf("compact-db: a database file is required")}
			}
			before, _ := e.fs.Stat(path)
			if err := store.CompactDatabase(path); err != nil {
				return &exitError{code: model.ExitStorage, err: fmt.Errorf("compact-db: %w", err)}
			}
			if after, err := e.fs.Stat(path); err == nil && before != nil && !e.quiet {
				log.Printf("compact-db: %s: %s => %s\n", path,
					humanize.Bytes(uint64(before.Size())), humanize.Bytes(uint64(after.Size())))
			}
			return nil
		},
	}
	return cmd
}

func cmdStats(e *env) *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "stats",
		Short:        "show row counts for each table",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.TableStats(cmd.Context())
			if err != nil {
				return e.finish(handlers.Status(err))
			}
			r, err := e.renderer("")
			if err != nil {
				return err
			}
			rows := [][]any{
				{model.KindGroup.Table(), humanize.Comma(stats.Groups)},
				{model.KindTeacher.Table(), humanize.Comma(stats.Teachers)},
				{model.KindStudent.Table(), humanize.Comma(stats.Students)},
				{model.KindSubject.Table(), humanize.Comma(stats.Subjects)},
				{model.KindScore.Table(), humanize.Comma(stats.Scores)},
			}
			fmt.Print(r.Render([]string{"table", "rows"}, rows))
			if path := s.Path(); path != "" {
				if fi, err := e.fs.Stat(path); err == nil {
					fmt.Printf("%s: %s\n", path, humanize.Bytes(uint64(fi.Size())))
				}
			}
			return nil
		},
	}
	return cmd
}

func cmdConfig(e *env) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "config",
		Short: "manage the configuration file",
	}
	cmd.AddCommand(cmdConfigInit(e))
	return cmd
}

func cmdConfigInit(e *env) *cobra.Command {
	force := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&force, "force", force, "overwrite an existing file")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "init",
		Short:        "write the default configuration to the --config file",
		Annotations:  map[string]string{"config": "optional"},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok, err := afero.Exists(e.fs, e.configFile); err != nil {
				return &exitError{code: model.ExitStorage, err: fmt.Errorf("config init: %w", err)}
			} else if ok && !force {
				return &exitError{code: model.ExitValidation, err: fmt.Errorf("config init: %s already exists (use --force to overwrite)", e.configFile)}
			}
			if err := config.Save(e.fs, config.Default(), e.configFile); err != nil {
				return &exitError{code: model.ExitStorage, err: fmt.Errorf("config init: %w", err)}
			}
			if !e.quiet {
				log.Printf("config init: wrote %s\n", e.configFile)
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatalf("config init: %v\n", err)
	}
	return cmd
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(gradebook.Version().String())
				return nil
			}
			fmt.Println(gradebook.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatalf("version: %v\n", err)
	}
	return cmd
}
