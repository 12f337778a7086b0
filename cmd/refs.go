package cmd

import (
	"fmt"

	"github.com/sorazip/sorazip/internal/output"
	"github.com/sorazip/sorazip/internal/refs"
	"github.com/spf13/cobra"
)

func newRefsCmd() *cobra.Command {
	var showURLs bool

	cmd := &cobra.Command{
		Use:   "refs [FILE | - | LINK...]",
		Short: "List the video references found in the input without downloading",
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			text, _, err := readInput(args)
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			found := refs.Parse(text)
			if len(found) == 0 {
				output.PrintError("No video references found")
				exit(1)
			}
			var client interface{ URL(refs.Reference) string }
			if showURLs {
				c, err := newFetchClient(runConfig)
				if err != nil {
					output.PrintError(err.Error())
					exit(1)
				}
				client = c
			}
			for _, ref := range found {
				if client != nil {
					fmt.Printf("%s  %s\n", ref, output.FDebug(client.URL(ref)))
				} else {
					fmt.Println(ref)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&showURLs, "urls", false, "Also print the download URL for each reference")
	return cmd
}
