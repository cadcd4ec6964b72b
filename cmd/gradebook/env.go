// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"
	"log"

	"github.com/mdhender/gradebook/config"
	"github.com/mdhender/gradebook/handlers"
	"github.com/mdhender/gradebook/model"
	"github.com/mdhender/gradebook/renderer"
	store "github.com/mdhender/gradebook/stores/sqlite"
	"github.com/spf13/afero"
)

// env is the state shared by every command of one invocation.
type env struct {
	fs         afero.Fs
	configFile string
	dbPath     string
	cfg        *config.Config

	quiet, verbose, debug bool
}

// databasePath returns the --db flag, falling back to the configuration.
func (e *env) databasePath() string {
	if e.dbPath != "" {
		return e.dbPath
	}
	return e.cfg.Database.Path
}

// open opens the store for one logical operation. The caller closes it.
func (e *env) open() (*store.SQLiteStore, error) {
	path := e.databasePath()
	if path == "" || path == ":memory:" {
		if e.verbose {
			log.Printf("store: using in-memory SQLite\n")
		}
		s, err := store.NewSQLiteStore()
		if err != nil {
			return nil, &exitError{code: model.ExitStorage, err: err}
		}
		return s, nil
	}

	if e.verbose {
		log.Printf("store: using file-based SQLite: %s\n", path)
	}
	s, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{
		Path:            path,
		InitSchema:      true,
		CreateIfMissing: e.cfg.Database.CreateIfMissing,
	})
	if err != nil {
		return nil, &exitError{code: model.ExitStorage, err: err}
	}
	return s, nil
}

// renderer builds the table renderer from the configuration and an optional border override.
func (e *env) renderer(border string, options ...renderer.Option) (*renderer.Renderer, error) {
	if border == "" {
		border = e.cfg.Reports.Border
	}
	r, err := renderer.New(append([]renderer.Option{renderer.WithBorder(border)}, options...)...)
	if err != nil {
		return nil, &exitError{code: model.ExitValidation, err: err}
	}
	return r, nil
}

// finish prints a handler result and converts its exit code into an error for main.
func (e *env) finish(res handlers.Result) error {
	if res.Output != "" {
		fmt.Print(res.Output)
	}
	fmt.Println(res.Status)
	if e.debug && res.Err != nil {
		log.Printf("debug: %s: %v\n", model.ErrorCode(res.Err), res.Err)
	}
	if res.Code != model.ExitOK {
		return &exitError{code: res.Code, err: res.Err, reported: true}
	}
	return nil
}
