package app

// CLI operations that only need the database. The cobra wiring lives in
// cmd/storefront.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"text/tabwriter"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/routes"
	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/config"
	"github.com/mmartin-estofados/storefront/pkg/database"
	"github.com/mmartin-estofados/storefront/pkg/migration"
	"github.com/mmartin-estofados/storefront/pkg/router"
)

// withDB loads config, connects and runs fn against the database.
func withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	db, err := database.Connect(ctx)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck
	return fn(db)
}

// Migrate runs every pending migration.
func Migrate(ctx context.Context, out io.Writer) error {
	return withDB(ctx, func(db *gorm.DB) error {
		ran, err := services.NewSetupService(db).InitDB(ctx)
		for _, name := range ran {
			fmt.Fprintf(out, "migrated  %s\n", name)
		}
		if err == nil && len(ran) == 0 {
			fmt.Fprintln(out, "Nothing to migrate.")
		}
		return err
	})
}

// Rollback reverses the last migration batch.
func Rollback(ctx context.Context, out io.Writer) error {
	return withDB(ctx, func(db *gorm.DB) error {
		undone, err := migration.New(db).Rollback(ctx)
		for _, name := range undone {
			fmt.Fprintf(out, "rolled back  %s\n", name)
		}
		if err == nil && len(undone) == 0 {
			fmt.Fprintln(out, "Nothing to roll back.")
		}
		return err
	})
}

// MigrationStatus prints every registered migration and its batch.
func MigrationStatus(ctx context.Context, out io.Writer) error {
	return withDB(ctx, func(db *gorm.DB) error {
		rows, err := migration.New(db).Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
		for _, s := range rows {
			ran, batch := "no", "-"
			if s.Ran {
				ran, batch = "yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
		}
		return w.Flush()
	})
}

// Seed runs every seeder. Existing rows are left alone.
func Seed(ctx context.Context, out io.Writer) error {
	return withDB(ctx, func(db *gorm.DB) error {
		created, err := services.NewSetupService(db).Seed(ctx)
		names := make([]string, 0, len(created))
		for name := range created {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "seeded  %-12s %d new\n", name, created[name])
		}
		return err
	})
}

// RouteList prints the route table. It needs no connections.
func RouteList(out io.Writer) error {
	r := router.New()
	routes.RegisterAPI(r, routes.Deps{
		Services: services.NewRegistry(services.Deps{}),
		Live:     http.NotFoundHandler(),
	})

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range r.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
