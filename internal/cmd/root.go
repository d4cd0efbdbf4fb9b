package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// rootCmd organizes a folder when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folder-tidy [folder]",
	Short: "Move every file in a folder into a subfolder named after it",
	Long: `folder-tidy moves each file directly inside a folder into a subfolder named
after the file's stem, so report.pdf ends up in report/report.pdf.

Files can be renamed before organizing, either interactively in the file list
or with --rename in instant mode. A file named after the tool itself
("organize" by default) is never moved.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runOrganize,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var (
	instant  bool
	renames  []string
	reserved string
	noLog    bool
)

func init() {
	rootCmd.Flags().BoolVarP(&instant, "instant", "i", false, "Organize immediately without the interactive file list")
	rootCmd.Flags().StringArrayVar(&renames, "rename", nil, "Rename a file before organizing (old=new, repeatable)")
	rootCmd.Flags().StringVar(&reserved, "reserved", "", "Stem of files that are never moved (default from config)")
	rootCmd.Flags().BoolVar(&noLog, "no-log", false, "Do not record an operation log for this run")
}
