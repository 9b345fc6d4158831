package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stratos-hq/charon/pkg/cli"
	"stratos-hq/charon/pkg/router"
)

var routesFlags struct {
	format string
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the active route table",
	Long: `List the route table of a running instance in match order.

Routes are shown highest priority first, the order the engine tries
them. Ties keep configuration order.

Examples:
  # Route table of the local instance
  charon routes

  # Machine-readable output
  charon routes --format json`,
	RunE: showRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)

	addAdminFlags(routesCmd)
	routesCmd.Flags().StringVar(&routesFlags.format, "format", "text", "output format: text, json")
}

func showRoutes(cmd *cobra.Command, args []string) error {
	var routes []router.Info
	if err := adminCall(http.MethodGet, "/admin/routes", nil, &routes); err != nil {
		return cli.NewCommandError("routes", err)
	}

	if routesFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, routes)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tMETHODS\tPATH\tHOST\tHANDLER")
	for _, rt := range routes {
		methods := "*"
		if len(rt.Methods) > 0 {
			methods = strings.Join(rt.Methods, ",")
		}
		host := rt.Host
		if host == "" {
			host = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", rt.Priority, methods, rt.Path, host, rt.Handler)
	}
	return w.Flush()
}
