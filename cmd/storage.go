package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/matheuskafuri/summaries/internal/cache"
	"github.com/matheuskafuri/summaries/internal/config"
	"github.com/matheuskafuri/summaries/internal/timefmt"
	"github.com/spf13/cobra"
)

const defaultRetention = 30 * 24 * time.Hour

var (
	flagPruneOlderThan string
	flagRecentLimit    int
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old summaries from the local cache",
	Long: `Delete cached summaries fetched before the cutoff and reclaim disk space.

The cutoff defaults to 30d unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := defaultRetention
		if flagPruneOlderThan != "" {
			d, err := parseSince(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		deleted, err := db.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		out := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(out, "Nothing to prune.")
		} else {
			fmt.Fprintf(out, "Pruned %d summary(ies) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.CachePath()
		db, err := cache.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cache: %s\n", dbPath)
		fmt.Fprintf(out, "Summaries: %d\n", count)
		fmt.Fprintf(out, "Size: %s\n", formatBytes(size))

		sess, err := db.LoadSession()
		switch {
		case errors.Is(err, cache.ErrNoSession):
			fmt.Fprintln(out, "Session: signed out")
		case err != nil:
			return fmt.Errorf("reading session: %w", err)
		default:
			fmt.Fprintf(out, "Session: %s (token expires %s)\n", sess.Email, sess.ExpiresAt.Local().Format(time.DateTime))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored sign-in session",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		if _, err := db.LoadSession(); errors.Is(err, cache.ErrNoSession) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		if err := db.DeleteSession(); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print cached summaries for the signed-in account",
	Long:  "Print the most recently fetched summaries from the local cache without contacting the backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := cache.Open(config.CachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		sess, err := db.LoadSession()
		if errors.Is(err, cache.ErrNoSession) {
			return errors.New("not signed in; run summaries to sign in first")
		}
		if err != nil {
			return fmt.Errorf("reading session: %w", err)
		}

		rows, err := db.GetSummaries(sess.UserID, flagRecentLimit)
		if err != nil {
			return fmt.Errorf("reading summaries: %w", err)
		}

		printRecent(cmd.OutOrStdout(), rows, cfg.Location())
		return nil
	},
}

// printRecent lists cached summaries with timestamps rendered as the TUI
// shows them.
func printRecent(w io.Writer, rows []cache.Summary, loc *time.Location) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No cached summaries.")
		return
	}
	for _, s := range rows {
		fmt.Fprintln(w, s.Title)
		if ts := timefmt.Format(s.CreatedAt, loc); ts != "" {
			fmt.Fprintf(w, "  %s\n", ts)
		}
		if s.URL != "" {
			fmt.Fprintf(w, "  %s\n", s.URL)
		}
	}
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override the cutoff (e.g., 7d, 720h)")
	recentCmd.Flags().IntVarP(&flagRecentLimit, "limit", "n", 10, "number of summaries to print")
}

// parseSince accepts Go durations plus a day suffix ("7d").
func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
