// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package gradebook manages a small academic records dataset (groups, teachers,
// students, subjects and scores) in an embedded SQLite database and answers a
// fixed set of aggregate reports over it.
//
// The packages, leaf to root:
//
//	model          record types, the entity Kind enum, errors and the Store contract
//	stores/sqlite  the SQLite implementation of model.Store
//	reports        the twelve read-only aggregate reports
//	renderer       bordered text tables for list and report output
//	handlers       create/update/remove/list returning status strings
//	seeder         fake seed data, written in a single transaction
//	config         YAML configuration
//	cmd/gradebook  the command line tool
package gradebook

import (
	"github.com/maloquacious/semver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 1,
		Patch: 0,
		Build: semver.Commit(),
	}
)

// Version returns the version of the gradebook module, including the build commit.
func Version() semver.Version {
	return version
}
