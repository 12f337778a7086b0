package cmd

import (
	"fmt"

	"github.com/sorazip/sorazip/internal/output"
	"github.com/sorazip/sorazip/internal/utils"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [DIR]",
		Short: "Remove partial files left by interrupted downloads",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := runConfig.OutputDir
			if len(args) > 0 {
				dir = args[0]
			}
			removed, err := utils.Clean(dir)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error cleaning up temporary files: %v", err))
				exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Removed %d temporary file%s", removed, plural(removed)))
		},
	}
}
