package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyflow/infra/backend"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Trigger the backend system update",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	res, err := client.SystemUpdate(commandContext(cmd))
	if err != nil && !errors.Is(err, backend.ErrRejected) {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range res.Results {
		status := "ok"
		if !s.OK {
			status = "FAILED"
		}
		fmt.Fprintf(out, "[%s] %s\n", status, s.Step)
		if s.Stdout != "" {
			fmt.Fprintln(out, s.Stdout)
		}
		if s.Stderr != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), s.Stderr)
		}
	}
	return err
}
