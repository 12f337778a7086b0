package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sorazip/sorazip/internal/fetch"
	"github.com/sorazip/sorazip/internal/output"
	"github.com/sorazip/sorazip/internal/refs"
	"github.com/sorazip/sorazip/internal/save"
	"github.com/sorazip/sorazip/internal/utils"
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	var noTitle bool

	cmd := &cobra.Command{
		Use:   "get [LINK]",
		Short: "Download a single video",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ref, ok := refs.Extract(args[0])
			if !ok {
				output.PrintError("Invalid link! Make sure it has s_ + 32 characters")
				exit(1)
			}
			client, err := newFetchClient(runConfig)
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			ctx, cancel := signalContext()
			defer cancel()

			resp, err := client.Open(ctx, ref)
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			defer resp.Body.Close()
			name := fetch.ResolveFilename(resp.Header.Get("Content-Disposition"), ref)
			path, written, err := save.NewLocal(runConfig.OutputDir).SaveStream(ctx, name, resp.Body)
			if err != nil {
				output.PrintError(fmt.Sprintf("Download failed: %v", err))
				exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("%s Saved %s (%s)", output.StyleSymbols["pass"], path, utils.FormatBytes(uint64(written))))

			if noTitle {
				return
			}
			title, err := client.LookupTitle(ctx, ref)
			if err != nil {
				log.Debug().Str("op", "cmd/get").Err(err).Msg("title lookup failed")
				return
			}
			output.PrintStream("  " + title)
		},
	}

	cmd.Flags().BoolVar(&noTitle, "no-title", false, "Skip looking up the video title")
	return cmd
}
