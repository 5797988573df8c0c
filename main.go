package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pcc-tenders/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := execute(ctx, utils.NewLogger(), os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line in args and returns the process exit code.
// Failures are reported through logger.
func execute(ctx context.Context, logger *utils.Logger, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("pcc-tenders failed: %v", err)
		return 1
	}
	return 0
}
