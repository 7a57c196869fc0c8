package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a0-lang/a0/internal/lsp"
)

// NewLSPCommand creates the `a0 lsp` command.
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the A0 Language Server Protocol server",
		Long: `Start a minimal A0 Language Server Protocol server.

It publishes diagnostics on textDocument/didOpen and
textDocument/didChange only: without a type system, those are the one
analysis A0 can honestly offer an editor. Communicates via JSON-RPC
over stdin/stdout; typically started automatically by an editor.`,
		RunE: runLSP,
	}
}

func runLSP(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return exitf(1, err)
	}
	defer logger.Sync()

	server := lsp.NewServer(logger.Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return server.Run(ctx)
}
