package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scriptkit/internal/toolchain"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that ffmpeg and ffprobe are installed",
	Long: `Doctor looks up the configured ffmpeg and ffprobe binaries and runs each
with -version. It prints one row per tool and fails when any is missing.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	statuses := toolchain.Check(cmd.Context(), cfg.Tools)
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "ok"
		if !s.Available {
			state = "missing"
		}
		rows = append(rows, []string{s.Name, s.Command, state, s.Used, s.Detail})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Tool", "Command", "Status", "Used by", "Detail"}, rows, nil))

	if missing := toolchain.Missing(statuses); len(missing) > 0 {
		return fmt.Errorf("%w: %d of %d tools unavailable", toolchain.ErrToolMissing, len(missing), len(statuses))
	}
	return nil
}
