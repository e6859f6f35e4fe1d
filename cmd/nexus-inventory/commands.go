package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/fairyhunter13/nexus-inventory/internal/client"
	"github.com/fairyhunter13/nexus-inventory/internal/config"
	"github.com/fairyhunter13/nexus-inventory/internal/dashboard"
	"github.com/fairyhunter13/nexus-inventory/internal/importer"
	"github.com/fairyhunter13/nexus-inventory/internal/model"
	"github.com/fairyhunter13/nexus-inventory/internal/sheet"
)

// msgMissingFields is what the user sees when add lacks a name or price.
const msgMissingFields = "Please fill details"

var errMissingFields = errors.New("name and price are required")

// clientConfig loads the environment and applies --api-url.
func clientConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, errors.Wrap(err, "loading config")
	}
	if u := c.String("api-url"); u != "" {
		cfg.APIURL = u
	}
	return cfg, nil
}

func newClient(c *cli.Context) (*client.Client, config.Config, error) {
	cfg, err := clientConfig(c)
	if err != nil {
		return nil, config.Config{}, err
	}
	return client.New(cfg.APIURL, cfg.ClientTimeout), cfg, nil
}

func listAction(c *cli.Context) error {
	api, _, err := newClient(c)
	if err != nil {
		return err
	}
	products, err := api.List(c.Context)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\t")
	for _, p := range products {
		mark := ""
		if p.LowStock() {
			mark = "!"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g%s\t\n", p.ID, p.Name, p.Category, p.Price, p.Stock, mark)
	}
	return tw.Flush()
}

func statsAction(c *cli.Context) error {
	api, _, err := newClient(c)
	if err != nil {
		return err
	}
	products, err := api.List(c.Context)
	if err != nil {
		return err
	}
	st := dashboard.ComputeStats(products)
	w := c.App.Writer
	fmt.Fprintf(w, "TOTAL PRODUCTS  %d\n", st.TotalProducts)
	fmt.Fprintf(w, "TOTAL VALUE     $%s\n", dashboard.FormatAmount(st.TotalValue))
	if len(st.Chart) == 0 {
		return nil
	}
	fmt.Fprintln(w, "LOW STOCK")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range st.Chart {
		mark := ""
		if e.Low {
			mark = "!"
		}
		fmt.Fprintf(tw, "  %s\t%g%s\t\n", e.Name, e.Stock, mark)
	}
	return tw.Flush()
}

func addAction(c *cli.Context) error {
	d := model.Draft{
		Name:     c.String("name"),
		Category: c.String("category"),
		Price:    model.Amount(c.String("price")),
		Stock:    model.Amount(c.String("stock")),
	}
	if d.Name == "" || d.Price == "" {
		fmt.Fprintln(c.App.ErrWriter, msgMissingFields)
		return errMissingFields
	}
	api, _, err := newClient(c)
	if err != nil {
		return err
	}
	p, err := api.Create(c.Context, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "created %s\n", p.ID)
	return nil
}

func deleteAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return client.ErrEmptyID
	}
	if !c.Bool("yes") {
		fmt.Fprint(c.App.Writer, "Are you sure you want to delete this product? [y/N] ")
		answer, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			fmt.Fprintln(c.App.Writer, "aborted")
			return nil
		}
	}
	api, _, err := newClient(c)
	if err != nil {
		return err
	}
	msg, err := api.Delete(c.Context, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, msg)
	return nil
}

func importAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("import needs a FILE argument")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	rows, err := sheet.ReadRows(f)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	api, cfg, err := newClient(c)
	if err != nil {
		return err
	}
	rep := importer.Run(c.Context, api, rows, importer.Options{Concurrency: cfg.ImportConcurrency})
	fmt.Fprintf(c.App.Writer, "Added %d of %d items\n", rep.Succeeded, rep.Total)
	for _, r := range rep.Failures() {
		fmt.Fprintf(c.App.Writer, "  row %d (%s): %v\n", r.Row, r.Draft.Name, r.Err)
	}
	if rep.Failed > 0 {
		return errors.Errorf("%d of %d rows failed", rep.Failed, rep.Total)
	}
	return nil
}

func exportAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = sheet.ExportFileName
	}
	api, _, err := newClient(c)
	if err != nil {
		return err
	}
	products, err := api.List(c.Context)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sheet.WriteProducts(f, products); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "exported %d products to %s\n", len(products), path)
	return nil
}
