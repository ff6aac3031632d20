package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyflow/core/flow"
	"github.com/kilianp07/energyflow/core/model"
)

var flowOutput string

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Fetch the inverter summary once and print the power flow",
	Args:  cobra.NoArgs,
	RunE:  runFlow,
}

func init() {
	flowCmd.Flags().StringVarP(&flowOutput, "output", "o", outputTable, "output format: table, json or yaml")
	rootCmd.AddCommand(flowCmd)
}

func runFlow(cmd *cobra.Command, args []string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	presenter, err := cfg.Flow.Presenter()
	if err != nil {
		return err
	}
	snap, err := client.InverterSummary(commandContext(cmd))
	if err != nil {
		return err
	}
	view := presenter.Present(flow.Derive(snap))
	view.SnapshotTime = snap.Time()
	return render(cmd.OutOrStdout(), flowOutput, view, func(w io.Writer) { flowRows(w, view) })
}

func flowRows(w io.Writer, v model.FlowView) {
	fmt.Fprintln(w, "NODE\tVALUE")
	for _, n := range v.Nodes {
		fmt.Fprintf(w, "%s\t%s\n", n.Node, n.Text)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "FROM\tTO\tACTIVE\tWEIGHT\tLABEL")
	for _, e := range v.Edges {
		fmt.Fprintf(w, "%s\t%s\t%t\t%.2f\t%s\n", e.From, e.To, e.Active, e.Weight, e.Label)
	}
}
