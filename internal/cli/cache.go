package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/cache"
	"github.com/dshills/critic/internal/config"
)

var flagCacheJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and prune cached advisory responses",
	Long: "The advisory stage caches each provider response by provider, model and redacted " +
		"prompt. These commands inspect the cache and remove stale or all entries.",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cached advisory responses per backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(false)
		if err != nil {
			return err
		}
		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		if flagCacheJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		writeCacheStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove advisory responses older than the cache TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		n, err := c.Prune()
		if err != nil {
			return fmt.Errorf("pruning cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired advisory responses.\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached advisory response",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		n, err := c.Clear()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached advisory responses.\n", n)
		return nil
	},
}

// openCache opens the configured advisory cache. force opens it even when
// caching is disabled so stale entries can still be removed.
func openCache(force bool) (*cache.Cache, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg.Cache.Enabled || force, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}

func writeCacheStats(w io.Writer, s cache.Stats) {
	if !s.Enabled {
		fmt.Fprintln(w, "Advisory cache is disabled.")
		return
	}
	fmt.Fprintf(w, "Directory: %s\n", s.Dir)
	fmt.Fprintf(w, "Responses: %d (%d expired, %d bytes)\n", s.Entries, s.Expired, s.TotalBytes)

	backends := make([]string, 0, len(s.ByBackend))
	for b := range s.ByBackend {
		backends = append(backends, b)
	}
	sort.Strings(backends)
	for _, b := range backends {
		fmt.Fprintf(w, "  %-40s %d\n", b, s.ByBackend[b])
	}
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheShowCmd.Flags().BoolVar(&flagCacheJSON, "json", false, "Print statistics as JSON")
}
