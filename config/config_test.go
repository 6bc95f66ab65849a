// pbscaffold: overlap-graph scaffolding of long sequencing reads.
// Copyright (c) 2017-2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kit4b/kit4b-sub002/graph"
	"github.com/kit4b/kit4b-sub002/paf"
)

func TestDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if s.MinAnchor != graph.DefaultMinAnchorLen || s.MinExtension != graph.DefaultMinExtension ||
		s.MaxDegree != graph.DefaultMaxDegree || s.OverlapSlack != paf.DefaultSlack {
		t.Error("defaults failed")
	}
	if s.SenseOnly || s.AcceptOrphans || s.MinScore != 0 {
		t.Error("default flags failed")
	}
	if s.NrOfThreads() <= 0 {
		t.Error("NrOfThreads failed")
	}
}

func TestLoadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "settings.yaml")
	settings := `sense-only: true
min-score: 850
max-degree: 0
threads: 3
overlap-slack: 25
`
	if err := os.WriteFile(filename, []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !s.SenseOnly || s.MinScore != 850 || s.MaxDegree != 0 || s.Threads != 3 || s.OverlapSlack != 25 {
		t.Error("settings file failed")
	}
	if s.MinAnchor != graph.DefaultMinAnchorLen {
		t.Error("defaults with settings file failed")
	}
	opts := s.GraphOptions()
	if !opts.SenseOnly || opts.MinScore != 850 || opts.MaxDegree != 0 || opts.MaxThreads != 3 {
		t.Error("GraphOptions failed")
	}
	if p := s.PAFOptions(); p.Slack != 25 || p.MaxThreads != 3 || p.BothDirections {
		t.Error("PAFOptions failed")
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PBSCAFFOLD_MIN_EXTENSION", "75")
	t.Setenv("PBSCAFFOLD_ACCEPT_ORPHANS", "true")
	s, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if s.MinExtension != 75 || !s.AcceptOrphans {
		t.Error("environment settings failed")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing settings file failed")
	}
}

func TestLoadRejectsZeroThresholds(t *testing.T) {
	dir := t.TempDir()
	for _, setting := range []string{"min-extension: 0\n", "min-anchor: 0\n", "min-score: 1001\n", "overlap-slack: -1\n"} {
		filename := filepath.Join(dir, "settings.yaml")
		if err := os.WriteFile(filename, []byte(setting), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(filename); err == nil {
			t.Error("invalid setting accepted:", setting)
		}
	}
	t.Setenv("PBSCAFFOLD_MIN_EXTENSION", "0")
	if _, err := Load(""); err == nil {
		t.Error("invalid environment setting accepted")
	}
}

func TestMinimalThresholds(t *testing.T) {
	t.Setenv("PBSCAFFOLD_MIN_EXTENSION", "1")
	t.Setenv("PBSCAFFOLD_MIN_ANCHOR", "1")
	s, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if opts := s.GraphOptions(); opts.MinExtension != 1 || opts.MinAnchorLen != 1 {
		t.Error("minimal thresholds failed")
	}
}
