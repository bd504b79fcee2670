package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
	"github.com/urfave/cli/v3"
)

// Add stores a new receipt or warranty.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseKind(strings.ToUpper(cmd.String("type")))
	if err != nil {
		return err
	}

	rec := models.NewReceiptWarranty(kind, cmd.String("title"), cmd.String("company"))
	rec.CreatedAt = r.now()
	if err := applyRecordFlags(cmd, rec); err != nil {
		return err
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	id, err := r.repo.Insert(ctx, rec)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}
	return r.writePlain("✓ Added #%d %s\n", id, rec.Title)
}

// Update changes the fields given on the command line and leaves the rest alone.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	rec, err := r.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: #%d", shared.ErrRecordNotFound, id)
	}

	if cmd.IsSet("type") {
		if rec.Kind, err = models.ParseKind(strings.ToUpper(cmd.String("type"))); err != nil {
			return err
		}
	}
	if cmd.IsSet("title") {
		rec.Title = cmd.String("title")
	}
	if cmd.IsSet("company") {
		rec.Company = cmd.String("company")
	}
	if err := applyRecordFlags(cmd, rec); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, rec); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}
	return r.writePlain("✓ Updated #%d %s\n", rec.ID, rec.Title)
}

// Get prints one record.
func (r *Runner) Get(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	rec, err := r.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: #%d", shared.ErrRecordNotFound, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}
	r.printRecord(*rec)
	return nil
}

// Delete removes one record.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	rec, err := r.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: #%d", shared.ErrRecordNotFound, id)
	}

	if err := r.repo.Delete(ctx, rec); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted #%d %s\n", id, rec.Title)
}

// List prints records, newest first, narrowed by type, category, search text and status filter.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	criteria, filter, err := listCriteria(cmd)
	if err != nil {
		return err
	}

	// Status is derived in memory, so the limit applies after filtering.
	limit := criteria.Limit
	if filter != models.FilterAll {
		criteria.Limit = 0
	}

	if err := r.open(ctx); err != nil {
		return err
	}

	items, err := r.repo.Find(ctx, criteria)
	if err != nil {
		return err
	}
	items = models.FilterByStatus(items, filter, r.now())
	if limit > 0 && uint64(len(items)) > limit {
		items = items[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}
	r.printRecords(items)
	return nil
}

// Companies prints the distinct company names.
func (r *Runner) Companies(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	companies, err := r.repo.Companies(ctx)
	if err != nil {
		return err
	}
	return r.writeStrings(companies, cmd.Bool("json"))
}

// Categories prints the distinct categories.
func (r *Runner) Categories(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	categories, err := r.repo.Categories(ctx)
	if err != nil {
		return err
	}
	return r.writeStrings(categories, cmd.Bool("json"))
}

func (r *Runner) writeStrings(values []string, asJSON bool) error {
	if asJSON {
		return r.writeJSON(values, false)
	}
	for _, v := range values {
		if err := r.writePlain("%s\n", v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) printRecords(items []models.ReceiptWarranty) {
	if len(items) == 0 {
		r.writePlain("No records.\n")
		return
	}

	now := r.now()
	for _, item := range items {
		line := fmt.Sprintf("#%-4d %-8s %-24s %-18s", item.ID, item.Kind, truncate(item.Title, 24), truncate(item.Company, 18))
		if item.WarrantyExpiryDate != nil {
			line += fmt.Sprintf(" %s %s", formatter.FormatDate(item.WarrantyExpiryDate), item.Status(now).Label())
		}
		r.writePlain("%s\n", strings.TrimRight(line, " "))
	}
}

func (r *Runner) printRecord(rec models.ReceiptWarranty) {
	r.writePlainHeader(fmt.Sprintf("#%d %s", rec.ID, rec.Title))
	rows := [][2]string{
		{"Type", string(rec.Kind)},
		{"Company", rec.Company},
		{"Category", models.Deref(rec.Category)},
		{"Purchased", formatter.FormatDate(rec.PurchaseDate)},
		{"Expires", formatter.FormatDate(rec.WarrantyExpiryDate)},
		{"Reminder", formatter.ReminderLabel(rec.ReminderDays)},
		{"Status", rec.Status(r.now()).Label()},
		{"Notes", models.Deref(rec.Notes)},
		{"Image", models.Deref(rec.ImageURI)},
	}
	for _, row := range rows {
		if row[1] != "" {
			r.writePlain("%-10s %s\n", row[0], row[1])
		}
	}
}

// applyRecordFlags copies the optional record flags that were set onto rec.
// An empty value clears the field.
func applyRecordFlags(cmd *cli.Command, rec *models.ReceiptWarranty) error {
	for _, name := range []string{"category", "notes", "image"} {
		if !cmd.IsSet(name) {
			continue
		}
		value := optionalString(cmd.String(name))
		switch name {
		case "category":
			rec.Category = value
		case "notes":
			rec.Notes = value
		case "image":
			rec.ImageURI = value
		}
	}

	for _, name := range []string{"purchased", "expires"} {
		if !cmd.IsSet(name) {
			continue
		}
		date, err := parseDate(cmd.String(name))
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		if name == "purchased" {
			rec.PurchaseDate = date
		} else {
			rec.WarrantyExpiryDate = date
		}
	}

	if cmd.IsSet("reminder") {
		value := strings.TrimSpace(cmd.String("reminder"))
		if value == "" {
			rec.ReminderDays = nil
		} else {
			reminder, err := models.ParseReminderDays(strings.ToUpper(value))
			if err != nil {
				return err
			}
			rec.ReminderDays = &reminder
		}
	}
	return nil
}

func listCriteria(cmd *cli.Command) (models.Criteria, models.WarrantyFilter, error) {
	var criteria models.Criteria

	if t := cmd.String("type"); t != "" {
		kind, err := models.ParseKind(strings.ToUpper(t))
		if err != nil {
			return criteria, "", err
		}
		criteria.Kind = kind
	}
	if cmd.IsSet("category") {
		criteria.Category = models.Ptr(cmd.String("category"))
	}
	criteria.Query = cmd.String("query")
	if limit := cmd.Int("limit"); limit > 0 {
		criteria.Limit = uint64(limit)
	}

	filter, err := models.ParseWarrantyFilter(cmd.String("filter"))
	if err != nil {
		return criteria, "", err
	}
	return criteria, filter, nil
}

// parseDate reads a yyyy-mm-dd date as midnight UTC in epoch millis. An empty string clears the date.
func parseDate(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(formatter.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be yyyy-mm-dd", shared.ErrInvalidArgument, s)
	}
	return models.Ptr(models.Millis(t)), nil
}

func parseID(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: record id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: record id %q", shared.ErrInvalidArgument, s)
	}
	return id, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func recordFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "receipt or warranty", Value: "receipt"},
		&cli.StringFlag{Name: "title", Usage: "What was bought", Required: required},
		&cli.StringFlag{Name: "company", Usage: "Where it was bought", Required: required},
		&cli.StringFlag{Name: "category", Usage: "Free-form category (empty clears)"},
		&cli.StringFlag{Name: "purchased", Usage: "Purchase date, yyyy-mm-dd"},
		&cli.StringFlag{Name: "expires", Usage: "Warranty expiry date, yyyy-mm-dd"},
		&cli.StringFlag{Name: "reminder", Usage: "ONE_DAY, THREE_DAYS, FIVE_DAYS or ONE_WEEK"},
		&cli.StringFlag{Name: "notes", Usage: "Notes"},
		&cli.StringFlag{Name: "image", Usage: "Image URI"},
		&cli.BoolFlag{Name: "json", Usage: "Output the stored record as JSON"},
	}
}

func idArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "add",
		Usage:  "Add a receipt or warranty",
		Flags:  recordFlags(true),
		Action: r.Add,
	}
}

func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change fields of a record",
		ArgsUsage: "<id>",
		Arguments: idArg(),
		Flags:     recordFlags(false),
		Action:    r.Update,
	}
}

func getCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Aliases:   []string{"show"},
		Usage:     "Show one record",
		ArgsUsage: "<id>",
		Arguments: idArg(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Get,
	}
}

func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a record",
		ArgsUsage: "<id>",
		Arguments: idArg(),
		Action:    r.Delete,
	}
}

func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List records, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "receipt or warranty"},
			&cli.StringFlag{Name: "category", Usage: "Exact category"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search title, company, notes and category"},
			&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "ALL, ALL_RECEIPTS, ALL_WARRANTIES, EXPIRING_SOON or EXPIRED"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of records"},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.List,
	}
}

func companiesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "companies",
		Usage:  "List distinct companies",
		Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
		Action: r.Companies,
	}
}

func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "categories",
		Usage:  "List distinct categories",
		Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
		Action: r.Categories,
	}
}
