// Package main is the nexus-inventory binary: the API service, the browser
// dashboard and terminal commands that talk to the API.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "nexus-inventory",
		Usage: "inventory tracker API, dashboard and client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "inventory API base URL (overrides API_URL)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the inventory API",
				Action: serveAction,
			},
			{
				Name:   "dashboard",
				Usage:  "run the browser dashboard",
				Action: dashboardAction,
			},
			{
				Name:   "list",
				Usage:  "print all products",
				Action: listAction,
			},
			{
				Name:   "stats",
				Usage:  "print totals and the lowest stock levels",
				Action: statsAction,
			},
			{
				Name:  "add",
				Usage: "create a product",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "price"},
					&cli.StringFlag{Name: "stock"},
				},
				Action: addAction,
			},
			{
				Name:      "delete",
				Usage:     "delete a product by id",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip confirmation"},
				},
				Action: deleteAction,
			},
			{
				Name:      "import",
				Usage:     "create products from an xlsx file",
				ArgsUsage: "FILE",
				Action:    importAction,
			},
			{
				Name:      "export",
				Usage:     "write all products to an xlsx file",
				ArgsUsage: "[FILE]",
				Action:    exportAction,
			},
		},
	}
}
