package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/whoknows/weather/config"
	cachemem "github.com/whoknows/weather/internal/cache/memory"
	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/provider/openweather"
	"github.com/whoknows/weather/internal/usecase"
	"github.com/whoknows/weather/pkg/logger"
	"github.com/whoknows/weather/pkg/validate"
)

type checkLine struct {
	City    string          `json:"city"`
	Status  domain.Status   `json:"status"`
	Elapsed string          `json:"elapsed"`
	Weather *domain.Weather `json:"weather,omitempty"`
}

// CLI: один проход Resolve по списку городов через настоящий провайдер.
// Города — аргументами или из файла (-in; пусто и без аргументов — stdin, по строке на город).
// Код выхода: 0 — все города доступны, 1 — ошибка запуска, 2 — нет валидных городов, 3 — есть недоступные.
func main() { os.Exit(run()) }

func run() int {
	inputPath := flag.String("in", "", "path to city list (.txt, .json or .jsonl)")
	formatStr := flag.String("format", "auto", "input format: auto|lines|json|jsonl")
	deadline := flag.Duration("deadline", 5*time.Second, "soft deadline per city")
	flag.Parse()

	_ = godotenv.Load(".env.local")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	cities, summary, err := readCities(*inputPath, validate.InputFormat(*formatStr), flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "cities: %v (%s)\n", err, summary)
		return 1
	}
	if len(cities) == 0 {
		fmt.Fprintf(os.Stderr, "no valid cities (%s)\n", summary)
		return 2
	}

	logg, cleanup, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = cleanup() }()

	client := openweather.NewClient(openweather.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout,
	}, nil)
	svc := usecase.NewWeatherService(cachemem.NewFreshnessCache(len(cities), nil), client, logg, nil, usecase.Options{
		AttemptTimeout: cfg.Refresh.AttemptTimeout,
	})
	checker := svc.WithPolicy(usecase.Policy{
		Name:         "check",
		SoftDeadline: *deadline,
		TTLFresh:     cfg.Cache.TTLFresh,
		TTLStale:     cfg.Cache.TTLStale,
	})

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	unavailable := 0
	for _, city := range cities {
		start := time.Now()
		res := checker.Resolve(ctx, city, time.Now())
		if !res.Status.Available() {
			unavailable++
		}
		_ = enc.Encode(checkLine{City: city, Status: res.Status, Elapsed: time.Since(start).String(), Weather: res.Payload})
	}

	// отвязанные попытки, не уложившиеся в дедлайн, не нужны
	closeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_ = svc.Close(closeCtx)

	fmt.Fprintf(os.Stderr, "check done: %d cities, %d unavailable (%s)\n", len(cities), unavailable, summary)
	if unavailable > 0 {
		return 3
	}
	return 0
}

func readCities(path string, format validate.InputFormat, args []string) ([]string, validate.CitiesResult, error) {
	switch {
	case path != "":
		return validate.ReadCitiesFile(path, format)
	case len(args) > 0:
		var (
			out []string
			res validate.CitiesResult
		)
		for _, a := range args {
			city, err := validate.City(a)
			if err != nil {
				res.Invalid++
				fmt.Fprintf(os.Stderr, "skip: %v\n", err)
				continue
			}
			out = append(out, city)
			res.Valid++
		}
		return out, res, nil
	default:
		if format == validate.FormatAuto {
			format = validate.FormatLines
		}
		return validate.ReadCities(os.Stdin, format)
	}
}
