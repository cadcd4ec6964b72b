// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdhender/gradebook"
	"github.com/mdhender/gradebook/config"
	"github.com/mdhender/gradebook/model"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func main() {
	e := &env{fs: afero.NewOsFs()}

	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().StringVar(&e.configFile, "config", config.DefaultPath, "load configuration from file")
		cmd.PersistentFlags().StringVar(&e.dbPath, "db", "", "database file (overrides config; \":memory:\" for a throwaway database)")
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", true, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:           "gradebook",
		Short:         "Academic records command line utility",
		Long:          `Create, update, remove and list groups, teachers, students, subjects and scores, and run reports over them.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mustExist := cmd.Flags().Changed("config") && cmd.Annotations["config"] != "optional"
			cfg, err := config.Load(e.fs, e.configFile, mustExist)
			if err != nil {
				return &exitError{code: model.ExitValidation, err: err}
			}
			e.cfg = cfg

			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			if !cmd.Flags().Changed("log-with-shortfile") {
				logWithShortFileName = cfg.Log.Shortfile
			}
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			if !cmd.Flags().Changed("log-with-timestamp") {
				logWithTimestamp = cfg.Log.Timestamp
			}
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags || logFlags == 0 {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			e.quiet, _ = cmd.Flags().GetBool("quiet")
			e.verbose, _ = cmd.Flags().GetBool("verbose")
			e.debug, _ = cmd.Flags().GetBool("debug")
			if e.quiet {
				e.verbose = false
			}

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("gradebook: version %q\n", gradebook.Version().Core())
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdCreate(e))
	cmdRoot.AddCommand(cmdUpdate(e))
	cmdRoot.AddCommand(cmdRemove(e))
	cmdRoot.AddCommand(cmdList(e))
	cmdRoot.AddCommand(cmdReport(e))
	cmdRoot.AddCommand(cmdSeed(e))
	cmdRoot.AddCommand(cmdInitDB(e))
	cmdRoot.AddCommand(cmdCompactDB(e))
	cmdRoot.AddCommand(cmdStats(e))
	cmdRoot.AddCommand(cmdConfig(e))
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmdRoot.ExecuteContext(ctx)
	stop()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) {
			// cobra flag and argument errors
			log.Printf("error: %v\n", err)
			os.Exit(model.ExitValidation)
		}
		if !ee.reported {
			log.Printf("error: %v\n", ee.err)
		}
		os.Exit(ee.code)
	}
}

// exitError carries the process exit code out of a command.
// reported is set when the command already printed a status for it.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}
