package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Stats prints the dashboard summary.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	summary, err := r.repo.Summary(ctx, r.now(), r.config.Thresholds.ExpiringSoon())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}

	r.writePlainHeader("Summary")
	r.writePlain("Total:          %d\n", summary.Total)
	r.writePlain("Receipts:       %d\n", summary.Receipts)
	r.writePlain("Warranties:     %d\n", summary.Warranties)
	r.writePlain("Active:         %d\n", summary.Active)
	r.writePlain("Expiring soon:  %d\n", summary.ExpiringSoon)
	r.writePlain("Expired:        %d\n", summary.Expired)

	if len(summary.Categories) > 0 {
		r.writePlainln("Categories")
		for _, c := range summary.Categories {
			r.writePlain("  %-20s %d\n", c.Category, c.Count)
		}
	}
	return nil
}

// Expiring prints warranties expiring within the window, soonest first.
func (r *Runner) Expiring(ctx context.Context, cmd *cli.Command) error {
	window := r.config.Thresholds.ExpiringItems()
	if cmd.IsSet("days") {
		days := cmd.Int("days")
		if days < 0 {
			return fmt.Errorf("--days must not be negative")
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	items, err := r.repo.ExpiringSoonItems(ctx, r.now(), window)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	if len(items) == 0 {
		return r.writePlain("Nothing expires in the next %d days.\n", int(window.Hours()/24))
	}
	for _, item := range items {
		r.writePlain("#%-4d %-24s %-18s %s\n", item.ID, truncate(item.Title, 24), truncate(item.Company, 18), formatter.FormatDate(item.WarrantyExpiryDate))
	}
	return nil
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show counts by type, warranty status and category",
		Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
		Action: r.Stats,
	}
}

func expiringCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "expiring",
		Usage: "List warranties that expire soon",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "Window in days (default: thresholds.expiring_items_days)"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Expiring,
	}
}
