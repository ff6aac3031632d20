package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyflow/core/history"
	"github.com/kilianp07/energyflow/core/model"
	"github.com/kilianp07/energyflow/core/source"
)

var (
	historyInterval string
	historyOutput   string
)

var historyCmd = &cobra.Command{
	Use:       "history <inverter|wallbox|heating>",
	Short:     "Fetch a history series and print its statistics",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: source.HistoryKinds,
	RunE:      runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyInterval, "interval", "5m", "sampling interval requested from the backend")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", outputTable, "output format: table, json or yaml")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	var tab model.Tabular
	switch args[0] {
	case "inverter":
		tab, err = client.InverterHistory(ctx, historyInterval)
	case "wallbox":
		tab, err = client.WallboxHistory(ctx, historyInterval)
	case "heating":
		tab, err = client.HeatingHistory(ctx, historyInterval)
	default:
		return fmt.Errorf("unknown history %q, expected one of %s", args[0], strings.Join(source.HistoryKinds, ", "))
	}
	if err != nil {
		return err
	}
	sum := history.Summarize(tab.Table())
	return render(cmd.OutOrStdout(), historyOutput, sum, func(w io.Writer) { summaryRows(w, sum) })
}

func summaryRows(w io.Writer, s history.Summary) {
	fmt.Fprintf(w, "%d points from %s to %s\n", s.Points, s.From.Format("2006-01-02 15:04"), s.To.Format("2006-01-02 15:04"))
	fmt.Fprintln(w, "FIELD\tUNIT\tMIN\tMAX\tMEAN\tSTDDEV\tENERGY")
	for _, f := range s.Fields {
		energy := "-"
		if f.EnergyWh != nil {
			energy = fmt.Sprintf("%.0f Wh", *f.EnergyWh)
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%s\n", f.Name, f.Unit, f.Min, f.Max, f.Mean, f.StdDev, energy)
	}
}
