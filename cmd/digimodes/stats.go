package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"gorm.io/gorm"

	"github.com/dbehnke/digimodes/internal/config"
	"github.com/dbehnke/digimodes/internal/database"
)

// STATS_RECENT is how many recent records the summary lists.
const STATS_RECENT = 10

// statsOptions select what printDatabaseStats reports.
type statsOptions struct {
	Callsign string        // list transmissions whose own callsign starts with this
	PruneCHU time.Duration // delete CHU frames older than this first, 0 keeps all
	Now      time.Time
}

// runStats opens the configured database and prints its summary.
func runStats(w io.Writer, cfg *config.Config, logger *log.Logger, opts statsOptions) error {
	a := &App{cfg: cfg, log: logger}
	if err := a.openDatabase(); err != nil {
		return err
	}
	defer a.db.Close()

	return printDatabaseStats(w, a.db, opts)
}

// printDatabaseStats summarises what earlier runs stored in the database.
func printDatabaseStats(w io.Writer, db *database.DB, opts statsOptions) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	txs := database.NewTransmissionRepository(db.GetDB())
	frames := database.NewCHUFrameRepository(db.GetDB())

	if err := txs.HealthCheck(); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}

	if opts.PruneCHU > 0 {
		deleted, err := frames.DeleteBefore(opts.Now.Add(-opts.PruneCHU))
		if err != nil {
			return fmt.Errorf("failed to prune CHU frames: %w", err)
		}
		fmt.Fprintf(w, "Pruned %s CHU frames older than %s\n", humanize.Comma(deleted), opts.PruneCHU)
	}

	stats, err := txs.GetStatistics()
	if err != nil {
		return fmt.Errorf("failed to get transmission statistics: %w", err)
	}
	fmt.Fprintf(w, "D-STAR transmissions: %s\n", humanize.Comma(stats["total_transmissions"].(int64)))
	if last, ok := stats["last_heard"].(time.Time); ok {
		fmt.Fprintf(w, "Last heard: %s (%s)\n", stats["last_callsign"], humanize.RelTime(last, opts.Now, "ago", "from now"))
	}
	if top, ok := stats["top_stations"].([]database.StationCount); ok {
		for _, s := range top {
			fmt.Fprintf(w, "  %-8s %s\n", s.Own, humanize.Comma(int64(s.Count)))
		}
	}

	open, err := txs.GetOpen()
	if err != nil {
		return err
	}
	if len(open) > 0 {
		fmt.Fprintf(w, "Unfinished transmissions: %d\n", len(open))
	}

	var list []database.Transmission
	if opts.Callsign != "" {
		list, err = txs.FindByCallsignPattern(opts.Callsign, STATS_RECENT)
	} else {
		list, err = txs.GetRecent(opts.Now.Add(-24*time.Hour), STATS_RECENT)
	}
	if err != nil {
		return err
	}
	for _, t := range list {
		fmt.Fprintf(w, "  %s %s\n", t.StartedAt.Format(time.DateTime), t.String())
	}

	total, err := frames.Count()
	if err != nil {
		return err
	}
	valid, err := frames.CountValid()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "CHU frames: %s (%s valid)\n", humanize.Comma(total), humanize.Comma(valid))

	latest, err := frames.GetLatestTime()
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return err
	default:
		fmt.Fprintf(w, "Last CHU time: %s\n", latest.Time.UTC().Format(time.RFC3339))
	}

	recent, err := frames.GetRecent(opts.Now.Add(-time.Hour), STATS_RECENT)
	if err != nil {
		return err
	}
	for _, f := range recent {
		line := fmt.Sprintf("  %s %s %s", f.ReceivedAt.Format(time.DateTime), f.Kind, f.Fields)
		if f.Error != "" {
			line += " error: " + f.Error
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
