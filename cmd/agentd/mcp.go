package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexsharp-ai/bytebot/internal/agent/desktop"
	"github.com/alexsharp-ai/bytebot/internal/agent/mcpbridge"
	"github.com/alexsharp-ai/bytebot/internal/logging"
)

var mcpAddr string

// defaultMCPAddr mirrors the reference runtime's fixed local MCP port
// (cmd/nebo/root.go's mcpPort), picked clear of common dev-server defaults.
const defaultMCPAddr = "localhost:27897"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the computer-tool surface over MCP for an external desktop-automation process",
	RunE: func(cmd *cobra.Command, args []string) error {
		bridge := mcpbridge.New(desktop.New(), mcpbridge.DefaultSpecs())

		mux := http.NewServeMux()
		mux.Handle("/mcp", bridge.Handler())
		mux.Handle("/mcp/", bridge.Handler())

		server := &http.Server{Addr: mcpAddr, Handler: mux}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			logging.Infof("[agentd] MCP bridge shutting down")
			cancel()
		}()

		go func() {
			<-ctx.Done()
			server.Shutdown(context.Background())
		}()

		logging.Infof("[agentd] MCP bridge listening at http://%s/mcp", mcpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", defaultMCPAddr, "address to serve the MCP bridge on")
	rootCmd.AddCommand(mcpCmd)
}
