package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/seqproxy/internal/control"
	"github.com/vietddude/seqproxy/internal/core/domain"
)

var (
	predictSequence string
	predictUser     string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a single prediction and print the result as JSON",
	Run:   runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictSequence, "sequence", "", "sequence to classify")
	predictCmd.Flags().StringVar(&predictUser, "user", "", "caller name recorded by the side channel")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	app, err := control.NewProxy(control.FromAppConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize Proxy", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, predictErr := app.Service().Predict(ctx, domain.SequenceRequest{
		Sequence: predictSequence,
		User:     predictUser,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		slog.Warn("Failed to flush notifications", "error", err)
	}

	if predictErr != nil {
		slog.Error("Prediction failed", "error", predictErr)
		os.Exit(1)
	}
}
