package cmd

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sorazip/sorazip/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// batchGroup is one named list of links; each group becomes its own archive.
type batchGroup struct {
	Name  string
	Links []string
}

var groupNameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Create one ZIP archive per group of links in a YAML file",
		Long: `Create one ZIP archive per group of links in a YAML file.

The file maps group names to link lists:

  favorites:
    - https://sora.chatgpt.com/p/s_6910c6372de8819190b35e3b2ee3df1f
    - https://sora.chatgpt.com/p/s_690a2c7d00d88191a03ab14f6d992153
  drafts:
    - https://sora.chatgpt.com/p/s_1234567890abcdef1234567890abcdef

Groups run one after another in file order. Archives are named
<prefix>_<group>_<count>_Videos_<date>.zip.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Error reading YAML file: %v", err))
				exit(1)
			}
			groups, err := parseBatchFile(data)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error parsing YAML file: %v", err))
				exit(1)
			}
			var tasks []runTask
			for _, group := range groups {
				if len(group.Links) == 0 {
					output.PrintWarning(fmt.Sprintf("Warning: group '%s' has no links, skipping...", group.Name))
					continue
				}
				tasks = append(tasks, runTask{
					label:  group.Name,
					prefix: groupPrefix(runConfig.Prefix, group.Name),
					text:   strings.Join(group.Links, "\n"),
				})
			}
			if len(tasks) == 0 {
				output.PrintError("No valid groups found in the batch file")
				exit(1)
			}
			log.Debug().Str("op", "cmd/batch").Msgf("Starting %d runs", len(tasks))
			output.PrintHeader(fmt.Sprintf("%d group%s from %s", len(tasks), plural(len(tasks)), args[0]))

			ctx, cancel := signalContext()
			defer cancel()
			outcomes, err := runTasks(ctx, runConfig, tasks)
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			for _, outcome := range outcomes {
				if outcome.err != nil {
					exit(1)
				}
			}
		},
	}
	return cmd
}

// parseBatchFile decodes the group mapping keeping the file's group order.
func parseBatchFile(data []byte) ([]batchGroup, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of group names to link lists", mapping.Line)
	}
	var groups []batchGroup
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		var links []string
		if err := value.Decode(&links); err != nil {
			return nil, fmt.Errorf("group %q: %w", key.Value, err)
		}
		groups = append(groups, batchGroup{Name: key.Value, Links: links})
	}
	return groups, nil
}

func groupPrefix(prefix, group string) string {
	group = strings.Trim(groupNameRegex.ReplaceAllString(group, "_"), "_")
	if group == "" {
		return prefix
	}
	return prefix + "_" + group
}
