package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var segmentPath string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wal-segment-cli",
	Short: "A tool for inspecting a single write-ahead log segment file.",
	Long:  `A tool for inspecting a single write-ahead log segment file.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&segmentPath,
		"file",
		"f",
		"",
		"The path to the WAL segment file.",
	)
	_ = rootCmd.MarkPersistentFlagRequired("file")
}
