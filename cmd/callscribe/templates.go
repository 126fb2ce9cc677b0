package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/callscribe/internal/config"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
)

func newTemplatesCmd(root *rootOptions) *cobra.Command {
	var (
		asJSON bool
		file   string
	)
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List agent templates",
		Long: `List the built-in agent templates merged with the templates file.

The templates file defaults to the templates.path config value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := file
			if path == "" {
				path = templatesPath(root)
			}
			catalog, err := prompt.NewCatalog(path, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.All())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tQUESTIONS\tVOICE")
			for _, key := range catalog.Keys() {
				t, err := catalog.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", key, t.Name, len(t.Questions), t.VoiceID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print templates as JSON")
	cmd.Flags().StringVar(&file, "file", "", "templates file to merge over the built-ins")
	return cmd
}

// templatesPath returns the configured templates file, or "" when the
// configuration cannot be loaded.
func templatesPath(root *rootOptions) string {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; using built-in templates\n", err)
		return ""
	}
	return cfg.Templates.Path
}
