package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyflow/core/model"
)

var wallboxOutput string

var wallboxCmd = &cobra.Command{
	Use:   "wallbox",
	Short: "Wallbox related commands",
}

var wallboxStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the wallbox status",
	Args:  cobra.NoArgs,
	RunE:  runWallboxStatus,
}

var wallboxSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a wallbox setting (alw, amp, dwo, frc, psm)",
	Args:  cobra.ExactArgs(2),
	RunE:  runWallboxSet,
}

func init() {
	wallboxStatusCmd.Flags().StringVarP(&wallboxOutput, "output", "o", outputTable, "output format: table, json or yaml")
	wallboxCmd.AddCommand(wallboxStatusCmd, wallboxSetCmd)
	rootCmd.AddCommand(wallboxCmd)
}

func runWallboxStatus(cmd *cobra.Command, args []string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	st, err := client.WallboxStatus(commandContext(cmd))
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), wallboxOutput, st, func(w io.Writer) {
		fmt.Fprintf(w, "Ladestrom\t%d A\n", int(st.Amp))
		fmt.Fprintf(w, "Modus\t%s\n", st.ForceStateLabel())
		fmt.Fprintf(w, "Fahrzeug\t%s\n", st.CarStateLabel())
		fmt.Fprintf(w, "Leistung\t%.0f W\n", st.CarPowerW())
	})
}

// parseSetting parses value as a number and checks it against key.
func parseSetting(key, value string) (any, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("value %q is not a number", value)
	}
	if err := model.ValidateWallboxSetting(key, f); err != nil {
		return nil, err
	}
	if f == math.Trunc(f) {
		return int64(f), nil
	}
	return f, nil
}

func runWallboxSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value, err := parseSetting(key, args[1])
	if err != nil {
		return err
	}
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	res, err := client.SetWallbox(commandContext(cmd), key, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %v", key, value)
	if res.Topic != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (%s)", res.Topic)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
