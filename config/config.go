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

// Package config holds the assembly settings. They are read by Viper from
// an optional settings file and PBSCAFFOLD_* environment variables, and can
// be overridden from the command line (see /cmd).
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/kit4b/kit4b-sub002/graph"
	"github.com/kit4b/kit4b-sub002/paf"
)

// EnvPrefix is the prefix of environment variables that override
// settings, for example PBSCAFFOLD_MIN_SCORE.
const EnvPrefix = "PBSCAFFOLD"

// Settings are the tunable parameters of an assembly run.
type Settings struct {
	// skip overlaps between opposite strands
	SenseOnly bool `mapstructure:"sense-only"`

	// skip overlaps with a per-mille identity below this score
	MinScore uint32 `mapstructure:"min-score"`

	// also write contigs consisting of a single read
	AcceptOrphans bool `mapstructure:"accept-orphans"`

	// number of worker threads, 0 for all available cores
	Threads int `mapstructure:"threads"`

	// minimum aligned length on both reads of an overlap
	MinAnchor uint32 `mapstructure:"min-anchor"`

	// minimum number of bases an overlap must add to a path
	MinExtension uint32 `mapstructure:"min-extension"`

	// maximum number of edges per vertex and direction, 0 for unbounded
	MaxDegree uint32 `mapstructure:"max-degree"`

	// unaligned bases tolerated at read ends when classifying overlaps
	OverlapSlack int `mapstructure:"overlap-slack"`

	// the overlap file lists every overlap in both directions
	BothDirections bool `mapstructure:"both-directions"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sense-only", false)
	v.SetDefault("min-score", 0)
	v.SetDefault("accept-orphans", false)
	v.SetDefault("threads", 0)
	v.SetDefault("min-anchor", graph.DefaultMinAnchorLen)
	v.SetDefault("min-extension", graph.DefaultMinExtension)
	v.SetDefault("max-degree", graph.DefaultMaxDegree)
	v.SetDefault("overlap-slack", paf.DefaultSlack)
	v.SetDefault("both-directions", false)
}

// Load returns the settings from the given settings file, which may be
// YAML, TOML or JSON, and the environment. If filename is empty, only the
// defaults and the environment are used.
func Load(filename string) (s Settings, err error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if filename != "" {
		v.SetConfigFile(filename)
		if err = v.ReadInConfig(); err != nil {
			return s, err
		}
	}
	if err = v.Unmarshal(&s); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// Validate checks the settings. Zero minimum anchor lengths or extensions
// are rejected: graph.Options would silently replace them with the
// defaults, and 1 is the smallest effective value.
func (s Settings) Validate() error {
	switch {
	case s.MinScore > 1000:
		return fmt.Errorf("invalid min-score %v, must be at most 1000", s.MinScore)
	case s.MinAnchor == 0:
		return errors.New("invalid min-anchor 0, must be at least 1")
	case s.MinExtension == 0:
		return errors.New("invalid min-extension 0, must be at least 1")
	case s.OverlapSlack < 0:
		return fmt.Errorf("invalid overlap-slack %v, must not be negative", s.OverlapSlack)
	}
	return nil
}

// NrOfThreads returns the number of threads to use.
func (s Settings) NrOfThreads() int {
	if s.Threads <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return s.Threads
}

// GraphOptions returns the graph options for these settings.
func (s Settings) GraphOptions() graph.Options {
	opts := graph.NewOptions()
	opts.SenseOnly = s.SenseOnly
	opts.MinScore = s.MinScore
	opts.AcceptOrphans = s.AcceptOrphans
	opts.MaxThreads = s.NrOfThreads()
	opts.MinAnchorLen = s.MinAnchor
	opts.MinExtension = s.MinExtension
	opts.MaxDegree = s.MaxDegree
	return opts
}

// PAFOptions returns the PAF loading options for these settings.
func (s Settings) PAFOptions() paf.Options {
	return paf.Options{
		Slack:          s.OverlapSlack,
		MaxThreads:     s.NrOfThreads(),
		BothDirections: s.BothDirections,
	}
}
