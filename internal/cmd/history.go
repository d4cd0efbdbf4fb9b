package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Digital-Shane/folder-tidy/internal/log"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent organize sessions",
	Long: `Show the most recent organize sessions recorded in the operation log,
newest first, with the folder and how many operations succeeded or failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printHistory(cmd.OutOrStdout(), historyLimit)
	},
}

func printHistory(w io.Writer, limit int) error {
	sessions, err := log.ReadSessions(limit)
	if err != nil {
		return fmt.Errorf("failed to read log sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No organize sessions found.")
		return nil
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		m := s.Metadata
		rows = append(rows, []string{
			m.Timestamp.Local().Format(time.DateTime),
			m.Folder,
			strconv.Itoa(m.TotalOps),
			strconv.Itoa(m.SuccessfulOps),
			strconv.Itoa(m.FailedOps),
			m.SessionID,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Started", "Folder", "Ops", "OK", "Failed", "Session"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of sessions to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
