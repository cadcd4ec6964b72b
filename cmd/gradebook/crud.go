// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"log"

	"github.com/mdhender/gradebook/handlers"
	"github.com/mdhender/gradebook/model"
	"github.com/spf13/cobra"
)

// recordFlags are the optional field flags shared by create and update.
type recordFlags struct {
	name    string
	groupID int64
	linkID  int64
	score   float64
	subject string
	date    string
}

func (rf *recordFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&rf.name, "name", "n", rf.name, `name, "first_name last_name" for people`)
	cmd.Flags().Int64VarP(&rf.groupID, "group-id", "g", rf.groupID, "group of a student")
	cmd.Flags().Int64VarP(&rf.linkID, "link-id", "l", rf.linkID, "teacher of a subject")
	cmd.Flags().Float64VarP(&rf.score, "score", "s", rf.score, "score [4.0, 3.7, 3.3, 3.0, 2.7, 2.3, 2.0, 1.7, 1.3, 1.0, 0.0]")
	cmd.Flags().StringVar(&rf.subject, "subject", rf.subject, "subject name of a score")
	cmd.Flags().StringVar(&rf.date, "date", rf.date, "date of a score, YYYY-MM-DD (default today)")
}

// args returns the flags the user actually gave.
func (rf *recordFlags) args(cmd *cobra.Command) handlers.Args {
	var a handlers.Args
	if cmd.Flags().Changed("name") {
		a.Name = &rf.name
	}
	if cmd.Flags().Changed("group-id") {
		a.GroupID = &rf.groupID
	}
	if cmd.Flags().Changed("link-id") {
		a.LinkID = &rf.linkID
	}
	if cmd.Flags().Changed("score") {
		a.Score = &rf.score
	}
	if cmd.Flags().Changed("subject") {
		a.Subject = &rf.subject
	}
	if cmd.Flags().Changed("date") {
		a.Date = &rf.date
	}
	return a
}

func addModelFlag(cmd *cobra.Command, modelName *string) {
	cmd.Flags().StringVarP(modelName, "model", "m", *modelName, "model [Student, Group, Teacher, Subject, Score]")
	if err := cmd.MarkFlagRequired("model"); err != nil {
		log.Fatal(err)
	}
}

func addIndexFlag(cmd *cobra.Command, index *int64) {
	cmd.Flags().Int64VarP(index, "index", "i", *index, "row id")
	if err := cmd.MarkFlagRequired("index"); err != nil {
		log.Fatal(err)
	}
}

// withHandlers parses the model, opens the store and runs fn with the handlers.
func withHandlers(e *env, cmd *cobra.Command, modelName string, fn func(h *handlers.Handlers, kind model.Kind) handlers.Result) error {
	kind, err := model.ParseKind(modelName)
	if err != nil {
		return e.finish(handlers.Status(err))
	}
	r, err := e.renderer("")
	if err != nil {
		return err
	}
	s, err := e.open()
	if err != nil {
		return err
	}
	defer s.Close()

	return e.finish(fn(handlers.New(s, r), kind))
}

func cmdCreate(e *env) *cobra.Command {
	var modelName string
	var rf recordFlags
	var cmd = &cobra.Command{
		Use:   "create",
		Short: "create a row",
		Example: `  gradebook create --model Group --name G301
  gradebook create --model Teacher --name "Jane Doe"
  gradebook create --model Student --name "John Smith" --group-id 1
  gradebook create --model Subject --name Mathematics --link-id 1
  gradebook create --model Score --name "John Smith" --subject Mathematics --score 4.0`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlers(e, cmd, modelName, func(h *handlers.Handlers, kind model.Kind) handlers.Result {
				return h.Create(cmd.Context(), kind, rf.args(cmd))
			})
		},
	}
	addModelFlag(cmd, &modelName)
	rf.add(cmd)
	return cmd
}

func cmdUpdate(e *env) *cobra.Command {
	var modelName string
	var index int64
	var rf recordFlags
	var cmd = &cobra.Command{
		Use:          "update",
		Short:        "update the given fields of a row",
		Example:      `  gradebook update --model Student --index 3 --group-id 2`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlers(e, cmd, modelName, func(h *handlers.Handlers, kind model.Kind) handlers.Result {
				return h.Update(cmd.Context(), kind, index, rf.args(cmd))
			})
		},
	}
	addModelFlag(cmd, &modelName)
	addIndexFlag(cmd, &index)
	rf.add(cmd)
	return cmd
}

func cmdRemove(e *env) *cobra.Command {
	var modelName string
	var index int64
	cascade := false
	var cmd = &cobra.Command{
		Use:          "remove",
		Short:        "remove a row",
		Long:         `Remove a row. Rows that other rows still reference are kept unless --cascade is given.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlers(e, cmd, modelName, func(h *handlers.Handlers, kind model.Kind) handlers.Result {
				return h.Remove(cmd.Context(), kind, index, cascade)
			})
		},
	}
	addModelFlag(cmd, &modelName)
	addIndexFlag(cmd, &index)
	cmd.Flags().BoolVar(&cascade, "cascade", cascade, "also remove every row that depends on this one")
	return cmd
}

func cmdList(e *env) *cobra.Command {
	var modelName string
	var cmd = &cobra.Command{
		Use:          "list",
		Short:        "list every row of a model",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandlers(e, cmd, modelName, func(h *handlers.Handlers, kind model.Kind) handlers.Result {
				return h.List(cmd.Context(), kind)
			})
		},
	}
	addModelFlag(cmd, &modelName)
	return cmd
}
