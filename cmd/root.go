// Package cmd implements the jstat CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/app"
	"github.com/derickschaefer/jstat/internal/config"
	"github.com/derickschaefer/jstat/internal/render"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Format      string
	Out         string
	NoCache     bool
	Refresh     bool
	Timeout     string
	Concurrency int
	Rate        float64
	Quiet       bool
	Verbose     bool
	Debug       bool
	BaseURL     string
}

// rootCmd is the base command. Running `jstat` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "jstat",
	Short: "jstat: read, check and re-encode JSON-stat 2.0 documents",
	Long: `jstat decodes JSON-stat 2.0 documents (datasets, collections and
standalone dimensions), checks them against the format's rules, and shows
their contents as tables, CSV, JSON or YAML.

A source is an http(s) URL, a local file, "-" for standard input, or a name
resolved against the configured base URL (default: the json-stat.org samples).
Remote documents are kept in a local store so repeated reads are offline.

Quick start:
  jstat get oecd.json              # summarize a sample dataset
  jstat cells oecd.json            # one row per cell, with category labels
  jstat links collection.json      # items of a collection
  jstat check *.json               # decode and validate many documents`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if globalFlags.Debug {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE. The "-" source reads the
// command's input stream.
func buildDeps(cmd *cobra.Command) (*app.Deps, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	deps, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	deps.Client.SetStdin(cmd.InOrStdin())
	return deps, nil
}

// resolveConfig loads config and applies CLI flag overrides on top.
func resolveConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.NoCache = globalFlags.NoCache
	cfg.Refresh = globalFlags.Refresh
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout %q: %w", globalFlags.Timeout, err)
		}
		cfg.Timeout = d
	}
	if globalFlags.Concurrency > 0 {
		cfg.Concurrency = globalFlags.Concurrency
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if globalFlags.BaseURL != "" {
		cfg.BaseURL = globalFlags.BaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md|yaml (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.BoolVar(&globalFlags.NoCache, "no-cache", false,
		"bypass cache reads (still writes fetched documents to cache)")
	pf.BoolVar(&globalFlags.Refresh, "refresh", false,
		"force re-fetch and overwrite cached documents")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 30s, 2m)")
	pf.IntVar(&globalFlags.Concurrency, "concurrency", 0,
		"max parallel fetches for batch operations (default: 8)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max HTTP requests per second (default: 5.0)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show cache/timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log HTTP requests, retries and cache hits to stderr")
	pf.StringVar(&globalFlags.BaseURL, "base-url", "",
		"URL that relative source names resolve against (overrides env "+config.EnvBaseURL+")")

	_ = rootCmd.RegisterFlagCompletionFunc("format", fixedCompletion(render.Formats))
}
