package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyflow/infra/backend"
)

var mockAddress string

var mockCmd = &cobra.Command{
	Use:   "mock-backend",
	Short: "Serve synthetic data on every backend endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return backend.NewMockServer(mockAddress, nil).Start(ctx)
	},
}

func init() {
	mockCmd.Flags().StringVar(&mockAddress, "address", ":8083", "listen address")
	rootCmd.AddCommand(mockCmd)
}
