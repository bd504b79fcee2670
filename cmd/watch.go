package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/desertthunder/receipts/internal/live"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Reminders prints the upcoming warranty reminders. With --follow it keeps running,
// re-arming timers whenever the stored reminders change and printing each one as it comes due.
func (r *Runner) Reminders(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	if !cmd.Bool("follow") {
		reminders, err := r.engine.Reminders(ctx, nil, r.now())
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(reminders, true)
		}
		if len(reminders) == 0 {
			return r.writePlain("No upcoming reminders.\n")
		}
		for _, rem := range reminders {
			r.writePlain("%s  #%-4d %s\n", formatter.FormatDate(&rem.At), rem.ItemID, rem.Message())
		}
		return nil
	}

	var mu sync.Mutex
	scheduler := tasks.NewReminderScheduler(func(rem tasks.Reminder) {
		mu.Lock()
		defer mu.Unlock()
		r.writePlain("🔔 %s\n", rem.Message())
	}, r.logger)
	defer scheduler.Stop()

	query := r.repo.WatchItemsWithReminders(ctx)
	defer query.Close()

	for snap := range query.Updates() {
		if snap.Err != nil {
			return snap.Err
		}
		scheduler.Sync(snap.Value)
		r.logger.Info("reminders armed", "pending", scheduler.Pending())
	}
	return ignoreCancel(ctx.Err())
}

// Watch prints the record list every time it changes until interrupted.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	var query *live.Query[[]models.ReceiptWarranty]
	if q := cmd.String("query"); q != "" {
		query = r.repo.WatchSearch(ctx, q)
	} else {
		query = r.repo.WatchAll(ctx)
	}
	defer query.Close()

	limit := cmd.Int("count")
	seen := 0
	for snap := range query.Updates() {
		if snap.Err != nil {
			return snap.Err
		}

		if cmd.Bool("json") {
			if err := r.writeJSON(snap.Value, false); err != nil {
				return err
			}
		} else {
			r.writePlainHeader(snap.At.Format("15:04:05") + " · " + pluralRecords(len(snap.Value)))
			r.printRecords(snap.Value)
		}

		seen++
		if limit > 0 && seen >= limit {
			return nil
		}
	}
	return ignoreCancel(ctx.Err())
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func pluralRecords(n int) string {
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}

func remindersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reminders",
		Usage: "Show upcoming warranty reminders",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "follow", Aliases: []string{"F"}, Usage: "Keep running and print reminders as they come due"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Reminders,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print the record list whenever it changes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Only records matching this text"},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Stop after this many snapshots"},
			&cli.BoolFlag{Name: "json", Usage: "Print each snapshot as one line of JSON"},
		},
		Action: r.Watch,
	}
}
