package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/pkg/logger"
)

// ackResponse mirrors the ingest acknowledgment shape.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Run generates synthetic activity, submits it at the configured rate
// and reads the analysis results back.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("simulate")

	events := GenerateEvents(cfg)
	stats := &Stats{EventsGenerated: len(events)}
	log.Info(ctx, "generated synthetic activity",
		logger.Int("events", len(events)),
		logger.Duration("span", cfg.Duration),
	)

	client := &http.Client{Timeout: cfg.Timeout}
	if err := submitEvents(ctx, log, client, cfg, events, stats); err != nil {
		return err
	}

	log.Info(ctx, "submission complete",
		logger.Int("submitted", stats.EventsSubmitted),
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("failed", stats.EventsFailed),
	)

	return readBack(ctx, log, client, cfg)
}

func submitEvents(ctx context.Context, log logger.Logger, client *http.Client, cfg *Config, events []model.RawEvent, stats *Stats) error {
	url := cfg.BaseURL + "/events"

	var pacer *time.Ticker
	if cfg.Rate > 0 {
		pacer = time.NewTicker(time.Duration(float64(time.Second) / cfg.Rate))
		defer pacer.Stop()
	}

	for _, e := range events {
		if pacer != nil {
			select {
			case <-ctx.Done():
				return fmt.Errorf("submission cancelled: %w", ctx.Err())
			case <-pacer.C:
			}
		} else if ctx.Err() != nil {
			return fmt.Errorf("submission cancelled: %w", ctx.Err())
		}

		stats.EventsSubmitted++
		switch submitSingleEvent(ctx, client, url, e) {
		case http.StatusAccepted:
			stats.EventsSuccessful++
		case http.StatusOK:
			stats.EventsDuplicate++
		default:
			stats.EventsFailed++
		}

		if cfg.Verbose && stats.EventsSubmitted%100 == 0 {
			log.Info(ctx, "progress",
				logger.Int("submitted", stats.EventsSubmitted),
				logger.Int("total", len(events)),
			)
		}
	}
	return nil
}

// submitSingleEvent posts one event and returns the response status,
// or zero when the request itself failed.
func submitSingleEvent(ctx context.Context, client *http.Client, url string, e model.RawEvent) int {
	body, err := json.Marshal(e)
	if err != nil {
		return 0
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// readBack queries the analysis endpoints and logs what the monitor saw.
func readBack(ctx context.Context, log logger.Logger, client *http.Client, cfg *Config) error {
	var snap struct {
		EventCount    int     `json:"event_count"`
		CognitiveLoad float64 `json:"cognitive_load"`
	}
	if err := getJSON(ctx, client, cfg.BaseURL+"/metrics/current", &snap); err != nil {
		log.Warn(ctx, "no current snapshot yet", logger.Error(err))
	} else {
		log.Info(ctx, "current cognitive state",
			logger.Int("eventCount", snap.EventCount),
			logger.Float64("cognitiveLoad", snap.CognitiveLoad),
		)
	}

	var patterns []struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}
	if err := getJSON(ctx, client, cfg.BaseURL+"/patterns?scale=micro&limit=10", &patterns); err != nil {
		return fmt.Errorf("read patterns: %w", err)
	}
	log.Info(ctx, "recent micro patterns", logger.Int("count", len(patterns)))
	for _, p := range patterns {
		log.Info(ctx, "pattern",
			logger.String("type", p.Type),
			logger.Float64("confidence", p.Confidence),
		)
	}

	var resonances []struct {
		Type     string  `json:"type"`
		Strength float64 `json:"strength"`
	}
	if err := getJSON(ctx, client, cfg.BaseURL+"/resonances?limit=10", &resonances); err != nil {
		return fmt.Errorf("read resonances: %w", err)
	}
	log.Info(ctx, "recent resonances", logger.Int("count", len(resonances)))

	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
