package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"forecast-backend/infrastructure/config"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List registered API versions and their query options",
	Long: `List every configured API version with its variant, deprecation flag and
the query options the policy allows for it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return listVersions(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func listVersions(out io.Writer, cfg *config.Config) error {
	descs, err := cfg.HandlerDescriptors()
	if err != nil {
		return err
	}
	constraints, err := cfg.Constraints()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tVARIANT\tDEPRECATED\tALLOWED")
	for _, d := range descs {
		kinds := constraints.AllowedFor(d.Version)
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = k.Param()
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", d.Version, d.Variant.Name, d.Deprecated, strings.Join(names, ","))
	}
	fmt.Fprintf(tw, "\nmaxTop=%d default=%s assumeDefault=%t\n", constraints.MaxTop(), cfg.Query.DefaultVersion, cfg.Query.AssumeDefaultVersion)
	return tw.Flush()
}
