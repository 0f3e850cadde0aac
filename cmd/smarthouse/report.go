package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/r1nov8/ing301gruppeA2/internal/house"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/config"
	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/logging"
)

// TemperatureReport is the output of "report temperature".
type TemperatureReport struct {
	Room     string             `json:"room"`
	From     string             `json:"from"`
	Until    string             `json:"until"`
	Averages map[string]float64 `json:"averages"`
}

// HumidityReport is the output of "report humidity".
type HumidityReport struct {
	Room  string `json:"room"`
	Date  string `json:"date"`
	Hours []int  `json:"hours"`
}

// report runs one analytics query and writes the result to out as JSON.
func report(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("report: want temperature or humidity")
	}
	kind, args := args[0], args[1:]
	if kind != "temperature" && kind != "humidity" {
		return fmt.Errorf("report: unknown report %q (want temperature or humidity)", kind)
	}

	fs := flag.NewFlagSet("report "+kind, flag.ContinueOnError)
	fs.SetOutput(out)
	room := fs.String("room", "", "Room name")
	from := fs.String("from", "", "First date, YYYY-MM-DD (temperature)")
	until := fs.String("until", "", "Last date, YYYY-MM-DD (temperature)")
	date := fs.String("date", "", "Date, YYYY-MM-DD (humidity)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("report %s: %w", kind, err)
	}
	if *room == "" {
		return fmt.Errorf("report %s: -room is required", kind)
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// Logs go to stderr so stdout carries only the report.
	logCfg := cfg.Logging
	logCfg.Output = "stderr"
	log := logging.New(logCfg, version)

	db, repo, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only command

	h, err := repo.LoadHouse(ctx)
	if err != nil {
		return fmt.Errorf("loading house: %w", err)
	}
	r := h.RoomByName(*room)
	if r == nil {
		return fmt.Errorf("report %s: room %q not found", kind, *room)
	}

	var result any
	switch kind {
	case "temperature":
		averages, err := repo.CalcAvgTemperaturesInRoom(ctx, r, *from, *until)
		if err != nil {
			return fmt.Errorf("report temperature: %w", err)
		}
		result = TemperatureReport{Room: r.Name, From: *from, Until: *until, Averages: averages}
	default:
		hours, err := repo.CalcHoursWithHumidityAbove(ctx, r, *date, humidityOptions(cfg.Analytics)...)
		if err != nil {
			return fmt.Errorf("report humidity: %w", err)
		}
		result = HumidityReport{Room: r.Name, Date: *date, Hours: hours}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// humidityOptions maps the analytics config section to query options.
func humidityOptions(cfg config.AnalyticsConfig) []house.HumidityOption {
	var opts []house.HumidityOption
	if cfg.HumidityPrefixMatch {
		opts = append(opts, house.WithPrefixMatch())
	}
	if cfg.HumidityBaseline == config.HumidityBaselineSameDay {
		opts = append(opts, house.WithSameDayBaseline())
	}
	return opts
}
