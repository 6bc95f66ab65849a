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

package cmd

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kit4b/kit4b-sub002/config"
	"github.com/kit4b/kit4b-sub002/fasta"
	"github.com/kit4b/kit4b-sub002/graph"
	"github.com/kit4b/kit4b-sub002/paf"
)

// AssembleHelp is the help string for this command.
const AssembleHelp = "assemble parameters:\n" +
	"pbscaffold assemble sequence-file overlap-file contig-file\n" +
	"[--config file]\n" +
	"[--sense-only]\n" +
	"[--min-score nr]\n" +
	"[--accept-orphans]\n" +
	"[--gexf file]\n" +
	"[--graphml file]\n" +
	"[--dot file]\n" +
	"[--dot-components nr]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// defaultDOTComponents limits DOT output, which does not scale to whole
// assemblies.
const defaultDOTComponents = 20

func openCatalog(filename string) (*fasta.Catalog, error) {
	if filepath.Ext(filename) == ".elfasta" {
		return fasta.OpenElfasta(filename)
	}
	return fasta.ParseFasta(filename, true, true)
}

// addVertices adds one vertex per catalog sequence, in catalog order, so
// that VertexIDs and therefore contig numbering are reproducible.
func addVertices(g *graph.Graph, catalog *fasta.Catalog) (int, error) {
	for id := uint32(1); int(id) <= catalog.Len(); id++ {
		if _, err := g.AddVertex(catalog.Length(id), id); err != nil {
			return 0, err
		}
	}
	return g.FinaliseVertices()
}

// Assemble implements the pbscaffold assemble command.
func Assemble() error {
	var (
		configFile, gexfFile, graphMLFile, dotFile string
		senseOnly, acceptOrphans                   bool
		minScore                                   uint
		dotComponents                              int
		nrOfThreads                                int
		timed                                      bool
		profile, logPath                           string
	)

	var flags flag.FlagSet
	flags.StringVar(&configFile, "config", "", "read settings from a YAML, TOML or JSON file")
	flags.BoolVar(&senseOnly, "sense-only", false, "skip overlaps between opposite strands")
	flags.UintVar(&minScore, "min-score", 0, "skip overlaps with a lower per-mille identity")
	flags.BoolVar(&acceptOrphans, "accept-orphans", false, "also write contigs consisting of a single sequence")
	flags.StringVar(&gexfFile, "gexf", "", "write the overlap graph in GEXF format")
	flags.StringVar(&graphMLFile, "graphml", "", "write the overlap graph in GraphML format")
	flags.StringVar(&dotFile, "dot", "", "write the largest components of the overlap graph in DOT format")
	flags.IntVar(&dotComponents, "dot-components", defaultDOTComponents, "number of components written in DOT format, 0 for all")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 5, AssembleHelp)

	input := getFilename(os.Args[2], AssembleHelp)
	overlaps := getFilename(os.Args[3], AssembleHelp)
	output := getFilename(os.Args[4], AssembleHelp)

	if err := setLogOutput(logPath); err != nil {
		return err
	}

	settings, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("%v, while reading settings", err)
	}
	if flagWasSet(&flags, "sense-only") {
		settings.SenseOnly = senseOnly
	}
	if flagWasSet(&flags, "min-score") {
		settings.MinScore = uint32(minScore)
	}
	if flagWasSet(&flags, "accept-orphans") {
		settings.AcceptOrphans = acceptOrphans
	}
	if flagWasSet(&flags, "nr-of-threads") {
		settings.Threads = nrOfThreads
	}

	// sanity checks

	sanityChecksFailed := false

	if !checkExist("", input) || !checkExist("", overlaps) || !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if gexfFile != "" && !checkCreate("--gexf", gexfFile) {
		sanityChecksFailed = true
	}
	if graphMLFile != "" && !checkCreate("--graphml", graphMLFile) {
		sanityChecksFailed = true
	}
	if dotFile != "" && !checkCreate("--dot", dotFile) {
		sanityChecksFailed = true
	}
	if dotComponents < 0 {
		log.Println("Error: Invalid --dot-components parameter ", dotComponents)
		sanityChecksFailed = true
	}
	if err := settings.Validate(); err != nil {
		log.Println("Error:", err)
		sanityChecksFailed = true
	}
	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, AssembleHelp)
		os.Exit(1)
	}

	runtime.GOMAXPROCS(settings.NrOfThreads())

	g := graph.New(settings.GraphOptions())
	log.Println("Assembly run", g.RunID())

	var catalog *fasta.Catalog
	defer func() {
		if catalog != nil {
			_ = catalog.Close()
		}
	}()

	phase := int64(1)

	err = timedRun(timed, profile, "Reading sequences and adding vertices.", phase, func() (err error) {
		if catalog, err = openCatalog(input); err != nil {
			return err
		}
		n, err := addVertices(g, catalog)
		if err == nil {
			log.Printf("Added %v vertices.\n", n)
		}
		return err
	})
	if err != nil {
		return err
	}

	phase++
	err = timedRun(timed, profile, "Loading overlaps.", phase, func() error {
		_, err := paf.Load(overlaps, catalog, g, settings.PAFOptions())
		return err
	})
	if err != nil {
		return err
	}

	phase++
	err = timedRun(timed, profile, "Finalising edges.", phase, func() error {
		n, err := g.FinaliseEdges()
		if err == nil {
			log.Printf("Retained %v edges.\n", n)
		}
		return err
	})
	if err != nil {
		return err
	}

	phase++
	err = timedRun(timed, profile, "Identifying disconnected components.", phase, func() error {
		n, err := g.IdentifyDiscComponents()
		if err == nil {
			log.Printf("Identified %v components.\n", n)
		}
		return err
	})
	if err != nil {
		return err
	}

	phase++
	err = timedRun(timed, profile, "Scoring paths.", phase, func() error {
		n, err := g.FindHighestScoringPaths()
		if err == nil {
			log.Printf("Traced %v path entries.\n", n)
		}
		return err
	})
	if err != nil {
		return err
	}

	phase++
	err = timedRun(timed, profile, "Writing output.", phase, func() error {
		n, err := g.WriteContigsFile(output, catalog)
		if err != nil {
			return err
		}
		log.Printf("Wrote %v contigs to %v.\n", n, output)
		if gexfFile != "" {
			if _, err := g.WriteGEXFFile(gexfFile); err != nil {
				return err
			}
		}
		if graphMLFile != "" {
			if _, err := g.WriteGraphMLFile(graphMLFile, catalog); err != nil {
				return err
			}
		}
		if dotFile != "" {
			if _, err := g.WriteDOTFile(dotFile, dotComponents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	stats := g.Stats()
	log.Printf("Overlaps: %v accepted, %v below minimum score, %v antisense skipped, %v inferred.\n",
		stats.AcceptedOverlaps, stats.BelowMinScore, stats.AntisenseSkipped, stats.InferredEdges)
	log.Printf("Edges: %v retained, %v duplicates, %v hairpin edges at %v vertices, %v out and %v in beyond maximum degree.\n",
		stats.RetainedEdges, stats.DuplicateEdges, stats.HairpinEdges, stats.HairpinVertices,
		stats.TruncatedOutEdges, stats.TruncatedInEdges)
	log.Printf("Paths: %v cycles skipped, %v singleton components.\n", stats.CyclesSkipped, stats.SingletonComponents)
	return nil
}
