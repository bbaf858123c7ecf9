package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/store"
	"github.com/derickschaefer/jstat/internal/util"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local document store",
	Long: `Commands for inspecting and clearing the local bbolt database.

Every remote document jstat reads is kept in the store, keyed by its URL, and
served from there on later reads. Entries do not expire: use --refresh to
re-fetch a document, or clear the store explicitly. Local files and standard
input are never stored.`,
}

// ─── cache stats ──────────────────────────────────────────────────────────────

var cacheStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show row counts and sizes for each bucket",
	Example: `  jstat cache stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		stats, err := deps.Store.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}

		// Sort by bucket name for deterministic output
		sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", deps.Store.Path())
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ROWS", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, fmt.Sprintf("%d", s.Count), util.HumanBytes(s.Bytes))
			}
		})
		return nil
	},
}

// ─── cache list ───────────────────────────────────────────────────────────────

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached documents",
	Example: `  jstat cache list
  jstat cache list --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		docs, err := deps.Store.ListDocuments(true)
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
		entries := make([]model.CacheEntry, len(docs))
		for i, d := range docs {
			entries[i] = model.CacheEntry{
				Source:    d.Source,
				Class:     d.Class,
				Bytes:     d.Size(),
				FetchedAt: d.FetchedAt,
			}
		}

		result := newResult(model.KindCache, "cache list", entries, len(entries), nil, start)
		return emit(cmd, deps, result)
	},
}

// ─── cache clear ──────────────────────────────────────────────────────────────

var (
	cacheClearAll    bool
	cacheClearBucket string
	cacheClearSource string
)

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete entries from the local store",
	Long: `Delete one document, one bucket, or everything.

Note: bbolt does not shrink the database file automatically after clearing.
Free pages are reused internally on the next write. To reclaim disk space,
run 'jstat cache compact' after clearing.`,
	Example: `  jstat cache clear --all
  jstat cache clear --bucket documents
  jstat cache clear --source https://json-stat.org/samples/oecd.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheClearAll && cacheClearBucket == "" && cacheClearSource == "" {
			return fmt.Errorf("specify --all, --bucket <name> or --source <url>\n\nBuckets: %s",
				strings.Join(store.AllBuckets, ", "))
		}

		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		out := cmd.OutOrStdout()
		switch {
		case cacheClearSource != "":
			src, err := deps.Client.Resolve(cacheClearSource)
			if err != nil {
				return err
			}
			found, err := deps.Store.DeleteDocument(src.Location)
			if err != nil {
				return fmt.Errorf("deleting %s: %w", src.Location, err)
			}
			if !found {
				fmt.Fprintf(out, "Nothing cached for %s\n", src.Location)
				return nil
			}
			fmt.Fprintf(out, "✓ Removed %s\n", src.Location)

		case cacheClearAll:
			if err := deps.Store.ClearAll(); err != nil {
				return fmt.Errorf("clearing all buckets: %w", err)
			}
			fmt.Fprintln(out, "✓ Cleared all buckets")

		default:
			if err := deps.Store.ClearBucket(cacheClearBucket); err != nil {
				return fmt.Errorf("clearing bucket %q: %w", cacheClearBucket, err)
			}
			fmt.Fprintf(out, "✓ Cleared bucket %q\n", cacheClearBucket)
		}
		fmt.Fprintln(out, "  Run 'jstat cache compact' to reclaim disk space.")
		return nil
	},
}

// ─── cache compact ────────────────────────────────────────────────────────────

var cacheCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the database file to reclaim freed disk space",
	Long: `Compact rewrites the entire bbolt database to a new file, recovering space
freed by prior 'cache clear' operations and by overwritten documents.

bbolt uses copy-on-write and never shrinks the database file automatically.
Deleted pages go on an internal freelist and are reused on future writes.
Compaction is the only way to reduce the file's on-disk footprint.

All live data is copied to a temporary file first, then the original is
replaced and reopened.`,
	Example: `  jstat cache compact`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		// Compact reopens the underlying bolt.DB itself; the Store handle
		// stays valid and is closed normally.
		defer deps.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Compacting %s ...\n", deps.Store.Path())

		res, err := deps.Store.Compact()
		if err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}

		saved := res.Before - res.After
		fmt.Fprintf(out, "✓ Compaction complete\n")
		fmt.Fprintf(out, "  Before: %s\n", util.HumanBytes(res.Before))
		fmt.Fprintf(out, "  After:  %s\n", util.HumanBytes(res.After))
		if saved > 0 {
			fmt.Fprintf(out, "  Saved:  %s\n", util.HumanBytes(saved))
		} else {
			fmt.Fprintln(out, "  No space reclaimed (database was already compact).")
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheCompactCmd)

	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "clear all buckets")
	cacheClearCmd.Flags().StringVar(&cacheClearBucket, "bucket", "", "clear a specific bucket: "+strings.Join(store.AllBuckets, "|"))
	cacheClearCmd.Flags().StringVar(&cacheClearSource, "source", "", "remove the document cached for one source")
	_ = cacheClearCmd.RegisterFlagCompletionFunc("bucket", fixedCompletion(store.AllBuckets))
}
