package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forgewave/bombard/internal/logger"
	"github.com/forgewave/bombard/internal/node"
)

var nodeHubAddress string

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Connect to a hub and run whatever job it dispatches",
	Long: `Node dials a hub's websocket registry and waits. When the hub dispatches
a job, the node runs it through the same load engine "bombard run" uses,
streaming stats back to the hub instead of writing a local CSV file.

Example:
  bombard node --hub localhost:8081`,
	RunE: runNode,
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.Flags().StringVar(&nodeHubAddress, "hub", "localhost:8081", "hub socket address (host:port)")
	nodeCmd.MarkFlagRequired("hub")
}

func runNode(_ *cobra.Command, _ []string) error {
	if err := logger.Init(logLevel()); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	log := logger.With()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	n := node.New(nodeHubAddress, log)
	printInfo(fmt.Sprintf("connecting to hub at %s", nodeHubAddress))
	return n.Run(ctx)
}
