package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOutput(cmd.OutOrStdout(), outputFormat, map[string]string{"version": Version}, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "codepad version %s\n", Version)
			return err
		})
	},
}
