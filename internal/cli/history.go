package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/seqproxy/internal/core/domain"
	redisclient "github.com/vietddude/seqproxy/internal/infra/redis"
	"github.com/vietddude/seqproxy/internal/infra/storage/postgres"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent recorded predictions",
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		entries []domain.Notification
		err     error
	)

	switch {
	case cfg.Notify.Database.URL != "":
		var db *postgres.DB
		db, err = postgres.NewDB(ctx, cfg.Notify.Database)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		repo := postgres.NewPredictionLogRepo(db)
		defer func() {
			_ = repo.Close()
		}()
		entries, err = repo.Recent(ctx, historyLimit)

	case cfg.Notify.Redis.URL != "":
		var rc *redisclient.Client
		rc, err = redisclient.NewClient(cfg.Notify.Redis)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		log := redisclient.NewPredictionLog(rc, cfg.Notify.Redis.Key, cfg.Notify.Redis.MaxLen)
		defer func() {
			_ = log.Close()
		}()
		entries, err = log.Recent(ctx, int64(historyLimit))

	default:
		slog.Error("No prediction log configured (notify.database.url or notify.redis.url)")
		os.Exit(1)
	}

	if err != nil {
		slog.Error("Failed to read prediction log", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TIME\tUSER\tSOURCE\tTOP\tPROBABILITY\tSEQUENCE")
	for _, n := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4f\t%s\n",
			n.Timestamp.Format(time.RFC3339), n.User, n.Source, n.TopTarget, n.TopProbability, clip(n.Sequence, 32))
	}
	_ = w.Flush()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
