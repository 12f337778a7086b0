package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sorazip/sorazip/internal/output"
	"github.com/sorazip/sorazip/internal/pipeline"
	"github.com/sorazip/sorazip/internal/refs"
	"github.com/sorazip/sorazip/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNoInput = errors.New("no input: pass a links file, '-' for stdin, or links as arguments")

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk [FILE | - | LINK...]",
		Short: "Download many videos into one ZIP archive",
		Long: `Download every video referenced in the input into a single ZIP archive.

Input is one link per line, read from a file, from stdin ('-' or piped), or
given as arguments. Lines without a video reference are ignored.

Examples:
  sorazip bulk links.txt
  pbpaste | sorazip bulk -o ~/Downloads
  sorazip bulk https://sora.chatgpt.com/p/s_6910c6372de8819190b35e3b2ee3df1f
  sorazip bulk links.txt --s3 s3://mybucket/videos`,
		Aliases: []string{"zip"},
		Args:    cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			text, label, err := readInput(args)
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			lines := refs.Lines(text)
			found := len(refs.Parse(text))
			output.PrintInfo(fmt.Sprintf("%d link%s, %d video%s found", len(lines), plural(len(lines)), found, plural(found)))
			if found > utils.MaxRecommendedItems {
				output.PrintWarning(fmt.Sprintf("Archives are built in memory; more than %d videos may fail", utils.MaxRecommendedItems))
			}

			ctx, cancel := signalContext()
			defer cancel()
			outcomes, err := runTasks(ctx, runConfig, []runTask{{label: label, prefix: runConfig.Prefix, text: text}})
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			if outcomes[0].err != nil {
				if errors.Is(outcomes[0].err, pipeline.ErrInputEmpty) {
					output.PrintError("Please paste at least one Sora link")
				}
				exit(1)
			}
			if result := outcomes[0].result; len(result.Failures) > 0 {
				output.PrintWarning(fmt.Sprintf("%d of %d videos could not be downloaded and were skipped", len(result.Failures), result.Attempted))
			}
		},
	}
	return cmd
}

// readInput resolves the bulk input to text plus a short label for display.
func readInput(args []string) (string, string, error) {
	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return "", "", errNoInput
		}
		args = []string{"-"}
	}
	if len(args) == 1 {
		arg := args[0]
		if arg == "-" {
			text, err := refs.ReadAll(os.Stdin)
			if err != nil {
				return "", "", fmt.Errorf("error reading stdin: %w", err)
			}
			return text, "stdin", nil
		}
		if _, isRef := refs.Extract(arg); !isRef {
			data, err := os.ReadFile(arg)
			if err != nil {
				return "", "", fmt.Errorf("error reading links file: %w", err)
			}
			return string(data), filepath.Base(arg), nil
		}
	}
	return strings.Join(args, "\n"), "arguments", nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
