package main

import (
	"flag"
	"fmt"
	"io"
)

// versionString is printed by the -version flag.
const versionString = "Report Retention Cleaner version 1.0.0"

// Process exit codes. Usage problems are distinguished from runtime
// failures so wrapper scripts can tell a typo from a database outage.
const (
	ExitStatusOK = iota
	ExitStatusError
	ExitStatusUsage
)

// options holds the parsed command line.
type options struct {
	cleanup  bool
	fillInDB bool
	summary  bool
	version  bool

	clusters string
	maxAge   string
	output   string

	// usage reprints the flag set's usage text, for errors detected
	// after parsing (e.g. a malformed age threshold)
	usage func()
}

// parseOptions parses the command line into options. Parse errors and -h
// have already written the usage text to w when this returns an error.
func parseOptions(args []string, w io.Writer) (*options, error) {
	var opts options

	flags := flag.NewFlagSet("report-cleaner", flag.ContinueOnError)
	flags.SetOutput(w)

	flags.BoolVar(&opts.cleanup, "cleanup", false, "delete aged records instead of listing them")
	flags.BoolVar(&opts.fillInDB, "fill-in-db", false, "insert test data into the database")
	flags.BoolVar(&opts.summary, "summary", false, "print a summary table after cleanup")
	flags.BoolVar(&opts.version, "version", false, "print version and exit")
	flags.StringVar(&opts.clusters, "clusters", "", "comma separated list of cluster names to restrict the run to")
	flags.StringVar(&opts.maxAge, "max-age", "", "age threshold, e.g. 90d, 2w, 3m, 1y")
	flags.StringVar(&opts.output, "output", "", "file to write the listed cluster names to")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	opts.usage = flags.Usage
	if err := opts.validate(); err != nil {
		fmt.Fprintln(w, err)
		flags.Usage()
		return nil, err
	}
	return &opts, nil
}

// validate rejects flag combinations that have no meaningful semantics.
func (o *options) validate() error {
	switch {
	case o.summary && !o.cleanup:
		return fmt.Errorf("-summary requires -cleanup")
	case o.cleanup && o.fillInDB:
		return fmt.Errorf("-cleanup and -fill-in-db are mutually exclusive")
	case o.fillInDB && o.output != "":
		return fmt.Errorf("-output has no effect with -fill-in-db")
	case o.cleanup && o.output != "":
		return fmt.Errorf("-output applies to listing runs only")
	}
	return nil
}

// mode names the operation the options select, for logs and metrics.
func (o *options) mode() string {
	switch {
	case o.fillInDB:
		return "fill-in-db"
	case o.cleanup:
		return "cleanup"
	default:
		return "listing"
	}
}
