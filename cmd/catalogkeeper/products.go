package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/dmarquez/catalogkeeper/internal/catalog"
	"github.com/dmarquez/catalogkeeper/internal/routes"
)

func (a *app) runProducts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return fmt.Errorf("missing products subcommand")
	}

	switch args[0] {
	case "list":
		return a.listProducts(ctx)
	case "add":
		return a.addProduct(ctx, args[1:])
	case "update":
		return a.updateProduct(ctx, args[1:])
	case "delete":
		return a.deleteProduct(ctx, args[1:])
	default:
		fmt.Fprint(a.stderr, usage)
		return fmt.Errorf("unknown products subcommand %q", args[0])
	}
}

func (a *app) listProducts(ctx context.Context) error {
	if err := a.guard(routes.PathProducts); err != nil {
		return err
	}
	if err := a.products.FetchAll(ctx); err != nil {
		return err
	}

	state := a.products.Snapshot()
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tBRAND\tPRICE\tSTOCK\tFLAGS")
	for _, product := range state.Products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			product.ID, product.Title, product.Brand,
			product.Price.StringFixed(2), product.Stock, provenance(product))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%d of %d products\n", len(state.Products), state.Total)
	return nil
}

func provenance(p catalog.Product) string {
	switch {
	case p.Local && p.Updated:
		return "local,updated"
	case p.Local:
		return "local"
	case p.Updated:
		return "updated"
	default:
		return ""
	}
}

func (a *app) addProduct(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products add", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	title := fs.String("title", "", "product title")
	brand := fs.String("brand", "", "brand")
	category := fs.String("category", "", "category")
	price := fs.String("price", "0", "price, e.g. 19.99")
	stock := fs.Int("stock", 0, "units in stock")
	description := fs.String("description", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.guard(routes.PathAdd); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("invalid price %q", *price)
	}

	product, err := a.products.Create(ctx, catalog.CreateDraft{
		Title:       *title,
		Brand:       *brand,
		Category:    *category,
		Price:       amount,
		Stock:       *stock,
		Description: *description,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Added %q with id %d.\n", product.Title, product.ID)
	return nil
}

func (a *app) updateProduct(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing product id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid product id %q", args[0])
	}

	fs := flag.NewFlagSet("products update", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	title := fs.String("title", "", "product title")
	brand := fs.String("brand", "", "brand")
	category := fs.String("category", "", "category")
	price := fs.String("price", "", "price, e.g. 19.99")
	stock := fs.Int("stock", 0, "units in stock")
	description := fs.String("description", "", "description")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if err := a.guard(routes.PathProducts + "/edit/" + args[0]); err != nil {
		return err
	}

	// Each invocation starts with an empty collection; pull the current page
	// so the patch has an entity to land on.
	if err := a.products.FetchAll(ctx); err != nil {
		return err
	}

	// Only flags the caller actually set become part of the patch; everything
	// else is left untouched on the entity.
	var draft catalog.UpdateDraft
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			draft.Title = title
		case "brand":
			draft.Brand = brand
		case "category":
			draft.Category = category
		case "stock":
			draft.Stock = stock
		case "description":
			draft.Description = description
		}
	})
	if *price != "" {
		amount, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("invalid price %q", *price)
		}
		draft.Price = &amount
	}

	product, err := a.products.Update(ctx, id, draft)
	if err != nil {
		return err
	}
	if product == nil {
		fmt.Fprintf(a.stdout, "Product %d is not in the local catalog; run `catalogkeeper products list` to refresh.\n", id)
		return nil
	}
	fmt.Fprintf(a.stdout, "Updated %q (id %d).\n", product.Title, product.ID)
	return nil
}

func (a *app) deleteProduct(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing product id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	if err := a.guard(routes.PathProducts); err != nil {
		return err
	}

	if err := a.products.FetchAll(ctx); err != nil {
		return err
	}
	if err := a.products.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Deleted product %d.\n", id)
	return nil
}
