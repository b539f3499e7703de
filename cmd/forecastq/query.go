package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"forecast-backend/application/queries"
	"forecast-backend/infrastructure/config"
	"forecast-backend/infrastructure/di"
	"forecast-backend/interfaces/http/rest/response"

	"github.com/spf13/cobra"
)

var queryFlags struct {
	apiVersion string
	seed       int64
	cached     bool
	headers    bool
}

var queryCmd = &cobra.Command{
	Use:   "query [query-string]",
	Short: "Run a query and print the response body",
	Long: `Run a query string through version resolution, parsing, policy enforcement
and application, then print the JSON body.

Examples:
  # Top three warmest days on the default version
  forecastq query '$orderby=temperatureCelsius desc&$top=3'

  # Filtered projection on version 2.0 with a fixed seed
  forecastq query --api-version 2.0 --seed 42 "\$filter=temperatureCelsius gt 10&\$select=date,summary"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryFlags.apiVersion, "api-version", "", "API version token (default version when empty)")
	queryCmd.Flags().Int64Var(&queryFlags.seed, "seed", 0, "random seed (overrides config; 0 keeps it)")
	queryCmd.Flags().BoolVar(&queryFlags.cached, "cached", false, "use the cacheable variant, which ignores query options")
	queryCmd.Flags().BoolVar(&queryFlags.headers, "headers", false, "print response headers before the body")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if queryFlags.seed != 0 {
		cfg.Forecast.Seed = queryFlags.seed
	}

	raw := ""
	if len(args) == 1 {
		raw = args[0]
	}
	return executeQuery(cmd.Context(), cmd.OutOrStdout(), cfg, queryFlags.apiVersion, raw, queryFlags.cached, queryFlags.headers)
}

// executeQuery runs one query through the wired query bus and writes the body to out.
func executeQuery(ctx context.Context, out io.Writer, cfg *config.Config, token, raw string, cached, headers bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer container.Logger.Sync()

	result, err := container.QueryBus.Ask(ctx, queries.ListForecastsQuery{
		VersionToken: token,
		RawQuery:     strings.TrimPrefix(raw, "?"),
		Cached:       cached,
	})
	if err != nil {
		return err
	}

	listResult, ok := result.(*queries.ListForecastsResult)
	if !ok {
		return fmt.Errorf("unexpected result type %T", result)
	}

	assembler := response.NewAssembler(time.Duration(cfg.Query.CacheMaxAgeSeconds) * time.Second)
	resp := assembler.Assemble(container.Resolver.Registry().Report(), listResult)

	if headers {
		for _, name := range []string{response.HeaderSupportedVersions, response.HeaderDeprecatedVersions, "Cache-Control"} {
			if v := resp.Header.Get(name); v != "" {
				fmt.Fprintf(out, "%s: %s\n", name, v)
			}
		}
		fmt.Fprintf(out, "api-version: %s\n", listResult.Version)
		if !cached {
			fmt.Fprintf(out, "directives: %s\n", listResult.Directives)
		}
		fmt.Fprintln(out)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp.Body)
}
