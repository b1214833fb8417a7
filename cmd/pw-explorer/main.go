package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/canasta-labs/pricewatch/internal/analysis"
	"github.com/canasta-labs/pricewatch/internal/config"
	"github.com/canasta-labs/pricewatch/internal/store"
	"github.com/canasta-labs/pricewatch/pkg/logger"
	"github.com/canasta-labs/pricewatch/pkg/model"
)

// explorer is a read-only terminal view over the collected history. It never
// writes to the database.
type explorer struct {
	store  *store.Store
	engine *analysis.Engine
}

func main() {
	var configPath string
	var ex explorer

	root := &cobra.Command{
		Use:   "pw-explorer",
		Short: "Explore collected price and quote history",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(cfg.ServiceName+"-explorer", cfg.Env, "warn")

			st, err := store.New(cmd.Context(), cfg.DatabaseURL, store.PoolConfig{
				MaxConns: 2,
				MinConns: 1,
			}, logger.L())
			if err != nil {
				return fmt.Errorf("connect to store: %w", err)
			}
			ex.store = st
			ex.engine = analysis.New(logger.L(), st, cfg)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ex.store != nil {
				ex.store.Close()
			}
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML domain config")

	root.AddCommand(
		ex.summaryCmd(),
		ex.categoryCmd(),
		ex.searchCmd(),
		ex.topCmd(),
		ex.basketCmd(),
		ex.quotesCmd(),
		ex.exportCmd(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (e *explorer) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Overall collection summary: counts, sources, category rollup",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			products, err := e.store.CountProducts(ctx)
			if err != nil {
				return err
			}
			quotes, err := e.store.CountQuotes(ctx)
			if err != nil {
				return err
			}
			sources, err := e.store.DistinctSources(ctx)
			if err != nil {
				return err
			}
			bounds, err := e.store.TimeBounds(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("products: %d\nquotes:   %d\nsources:  %v\n", products, quotes, sources)
			if bounds != nil {
				fmt.Printf("first:    %s\nlast:     %s\n",
					bounds.First.Format(time.RFC3339), bounds.Last.Format(time.RFC3339))
			}

			rollup, err := e.store.CategoryRollup(ctx)
			if err != nil {
				return err
			}
			if len(rollup) == 0 {
				return nil
			}
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tCOUNT\tMEAN\tMIN\tMAX")
			for _, s := range rollup {
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\n", s.Category, s.Count, s.Mean, s.Min, s.Max)
			}
			return w.Flush()
		},
	}
}

func (e *explorer) categoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category <name>",
		Short: "List records for one category, cheapest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := e.store.ProductsByCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(products) == 0 {
				fmt.Printf("no records for category %q\n", args[0])
				return nil
			}
			return printProducts(products)
		},
	}
}

func (e *explorer) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search product names, case-insensitive substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := e.store.SearchProducts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(products) == 0 {
				fmt.Printf("no records matching %q\n", args[0])
				return nil
			}
			return printProducts(products)
		},
	}
}

func (e *explorer) topCmd() *cobra.Command {
	var expensive bool
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Cheapest (or most expensive) records across the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := e.store.TopProducts(cmd.Context(), limit, !expensive)
			if err != nil {
				return err
			}
			return printProducts(products)
		},
	}
	cmd.Flags().BoolVar(&expensive, "expensive", false, "most expensive instead of cheapest")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of records")
	return cmd
}

func (e *explorer) basketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "basket",
		Short: "Price the configured household basket at cheapest-ever prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			basket, err := e.engine.ComputeBasket(cmd.Context())
			if err != nil {
				return err
			}
			if basket.Found == 0 {
				fmt.Println("no basket categories have records yet")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tQTY\tPRODUCT\tUNIT\tSUBTOTAL")
			for _, item := range basket.Items {
				fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%s\n",
					item.Category, item.Quantity, item.Product.Name,
					item.Product.Price, item.Subtotal.StringFixed(2))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\ntotal: %s  (%d of %d categories priced)\n",
				basket.Total.StringFixed(2), basket.Found, basket.Requested)
			return nil
		},
	}
}

func (e *explorer) quotesCmd() *cobra.Command {
	var limit int
	var latest bool

	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Collected currency quotes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				quotes []model.Quote
				err    error
			)
			if latest {
				quotes, err = e.store.LatestQuotes(cmd.Context())
			} else {
				quotes, err = e.store.RecentQuotes(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(quotes) == 0 {
				fmt.Println("no quotes collected yet")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBUY\tSELL\tCURRENCY\tTS")
			for _, q := range quotes {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%s\t%s\n",
					q.Name, q.Buy, q.Sell, q.Currency,
					q.Timestamp.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of quotes")
	cmd.Flags().BoolVar(&latest, "latest", false, "only the latest quote per type")
	return cmd
}

func (e *explorer) exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full product history as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := e.store.AllProducts(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			cw := csv.NewWriter(f)
			if err := cw.Write([]string{
				"id", "timestamp", "source", "category", "name", "brand",
				"price", "price_min", "price_max", "package", "external_id",
				"outlet_count", "seller", "link",
			}); err != nil {
				return err
			}
			for _, p := range products {
				if err := cw.Write([]string{
					strconv.FormatInt(p.ID, 10),
					p.Timestamp.Format(time.RFC3339),
					p.Source,
					p.Category,
					p.Name,
					p.Brand,
					strconv.FormatFloat(p.Price, 'f', -1, 64),
					strconv.FormatFloat(p.PriceMin, 'f', -1, 64),
					strconv.FormatFloat(p.PriceMax, 'f', -1, 64),
					p.Package,
					p.ExternalID,
					strconv.Itoa(p.OutletCount),
					p.Seller,
					p.Link,
				}); err != nil {
					return err
				}
			}
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			fmt.Printf("exported %d records to %s\n", len(products), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "products.csv", "output file")
	return cmd
}

func printProducts(products []model.Product) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRICE\tNAME\tBRAND\tSOURCE\tCATEGORY\tTS")
	for _, p := range products {
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\t%s\t%s\n",
			p.Price, p.Name, p.Brand, p.Source, p.Category,
			p.Timestamp.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
