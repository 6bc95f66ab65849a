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
	"log"
	"os"

	"github.com/kit4b/kit4b-sub002/fasta"
)

// FastaToElfastaHelp is the help string for this command.
const FastaToElfastaHelp = "fasta-to-elfasta parameters:\n" +
	"pbscaffold fasta-to-elfasta fasta-file elfasta-file\n" +
	"[--keep-case]\n" +
	"[--log-path path]\n"

// FastaToElfasta implements the pbscaffold fasta-to-elfasta command.
func FastaToElfasta() error {
	var (
		keepCase bool
		logPath  string
	)

	var flags flag.FlagSet
	flags.BoolVar(&keepCase, "keep-case", false, "do not convert bases to upper case or normalize ambiguity codes")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, FastaToElfastaHelp)

	input := getFilename(os.Args[2], FastaToElfastaHelp)
	output := getFilename(os.Args[3], FastaToElfastaHelp)

	if err := setLogOutput(logPath); err != nil {
		return err
	}

	if !checkExist("", input) || !checkCreate("", output) {
		os.Exit(1)
	}

	catalog, err := fasta.ParseFasta(input, !keepCase, !keepCase)
	if err != nil {
		return err
	}
	if err = fasta.ToElfasta(catalog, output); err != nil {
		return err
	}
	log.Printf("Converted %v sequences.\n", catalog.Len())
	return nil
}
