// Command lookup prints the weather for a city or a coordinate pair.
//
//	lookup -city Paris
//	lookup -lat 48.85 -lon 2.35 -days 7 -humidity
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/adapters/secondary/geolocation"
	"github.com/sean-rowe/weather-lookup/internal/adapters/secondary/openmeteo"
	"github.com/sean-rowe/weather-lookup/internal/config"
	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/services"
	"github.com/sean-rowe/weather-lookup/internal/version"
)

func main() {
	cfg := config.Load()

	var (
		city     = flag.String("city", "", "Place name to look up")
		lat      = flag.String("lat", "", "Latitude, used with -lon instead of -city")
		lon      = flag.String("lon", "", "Longitude, used with -lat instead of -city")
		days     = flag.Int("days", cfg.Forecast.Days, "Forecast length in days (1-16)")
		humidity = flag.Bool("humidity", cfg.Forecast.IncludeHumidity, "Include daily maximum relative humidity")
		timeout  = flag.Duration("timeout", cfg.External.HTTPTimeout, "Timeout per provider request")
		asJSON   = flag.Bool("json", false, "Print the final view as JSON")
		verbose  = flag.Bool("verbose", false, "Log provider calls to stderr")
		showVer  = flag.Bool("version", false, "Print build information and exit")
	)

	flag.Parse()

	if *showVer {
		fmt.Println(version.Get())
		return
	}

	logger := zap.NewNop()

	if *verbose {
		var err error

		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
	}

	defer func() { _ = logger.Sync() }()

	client := openmeteo.NewClient(openmeteo.Config{
		GeocodingBaseURL: cfg.External.GeocodingBaseURL,
		ForecastBaseURL:  cfg.External.ForecastBaseURL,
		Pipeline:         domain.PipelineConfig{DayCount: *days, IncludeHumidity: *humidity},
		Timeout:          *timeout,
	}, &http.Client{Timeout: *timeout}, logger)

	var opts []services.Option

	if !*asJSON {
		opts = append(opts, services.WithViewSink(&terminalSink{out: os.Stdout}))
	}

	orchestrator := services.NewOrchestrator(
		services.NewGeoResolver(client, nil, 0, logger),
		client,
		logger,
		opts...,
	)

	ctx := context.Background()

	var view domain.RenderedView

	if *lat != "" || *lon != "" {
		provider, err := geolocation.FromBrowser(*lat, *lon, "")

		if err != nil {
			provider = geolocation.Unavailable{Err: err}
		}

		view, _ = orchestrator.UseLocation(ctx, provider)
	} else {
		view, _ = orchestrator.Submit(ctx, *city)
	}

	if *asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(view); err != nil {
			log.Fatalf("failed to encode view: %v", err)
		}
	}

	if view.Status == domain.ViewError {
		os.Exit(1)
	}
}

// terminalSink prints every view as it is rendered.
type terminalSink struct {
	out io.Writer
}

func (s *terminalSink) Show(_ context.Context, view domain.RenderedView) {
	printView(s.out, view)
}

func printView(out io.Writer, view domain.RenderedView) {
	switch view.Status {
	case domain.ViewLoading:
		fmt.Fprintln(out, view.Message)
	case domain.ViewError:
		fmt.Fprintf(out, "Error: %s\n", view.Message)
	case domain.ViewResult:
		printResult(out, view)
	}
}

func printResult(out io.Writer, view domain.RenderedView) {
	if c := view.Current; c != nil {
		fmt.Fprintf(out, "\nNow: %s, %.1f°C, wind %.1f km/h\n\n", c.Description, c.TemperatureC, c.WindSpeedKmh)
	}

	fmt.Fprintln(out, view.ForecastTitle)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	withHumidity := len(view.Forecast) > 0 && view.Forecast[0].HumidityMaxPercent != nil

	header := "DATE\tCONDITIONS\tMAX °C\tMIN °C\tWIND km/h"
	if withHumidity {
		header += "\tHUMIDITY %"
	}

	fmt.Fprintln(tw, header)

	for _, day := range view.Forecast {
		row := fmt.Sprintf("%s\t%s\t%.1f\t%.1f\t%.1f",
			day.Date, day.Description, day.TempMaxC, day.TempMinC, day.WindSpeedMaxKmh)

		if day.HumidityMaxPercent != nil {
			row += fmt.Sprintf("\t%.0f", *day.HumidityMaxPercent)
		}

		fmt.Fprintln(tw, row)
	}

	_ = tw.Flush()
}

