package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"care_tracker/internal/config"
	"care_tracker/internal/models"
	"care_tracker/internal/store"
	"care_tracker/internal/telemetry"
)

func newReplayCmd(load loader) *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "replay <file.json|file.jsonl>",
		Short: "Feed recorded location samples through the ingest pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load().cfg

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			samples, err := readSamples(f, strings.EqualFold(filepath.Ext(args[0]), ".jsonl"))
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			var history telemetry.HistoryStore
			var zones telemetry.ZoneSource
			if inMemory {
				mem := store.NewMemoryStore()
				history, zones = mem, mem
			} else {
				db, err := config.OpenDB(cfg)
				if err != nil {
					return err
				}
				history, zones = store.NewGormHistoryStore(db), store.NewGormZoneStore(db)
			}

			printer := &eventPrinter{w: cmd.OutOrStdout()}
			pipeline := telemetry.NewPipeline(history, zones, printer, cfg.PipelineOptions())
			summary := replay(cmd.Context(), pipeline, samples)

			logrus.WithFields(logrus.Fields{
				"file":     args[0],
				"accepted": summary.Accepted,
				"rejected": summary.Rejected,
				"failed":   summary.Failed,
				"events":   summary.Events,
			}).Info("Replay finished")
			cmd.Printf("accepted=%d rejected=%d failed=%d events=%d\n", summary.Accepted, summary.Rejected, summary.Failed, summary.Events)
			return nil
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "Replay against an in-memory store (no safe zones)")
	return cmd
}

type replaySummary struct {
	Accepted, Rejected, Failed, Events int
}

func replay(ctx context.Context, pipeline *telemetry.Pipeline, samples []models.LocationSample) replaySummary {
	var s replaySummary
	for i, sample := range samples {
		res, err := pipeline.Ingest(ctx, sample)
		switch {
		case err != nil:
			s.Failed++
			logrus.WithError(err).WithField("line", i+1).Warn("Replay sample failed")
		case !res.Accepted():
			s.Rejected++
		default:
			s.Accepted++
			s.Events += len(res.Events)
		}
	}
	return s
}

// readSamples accepts a JSON array, or one JSON object per line when jsonl is set.
func readSamples(r io.Reader, jsonl bool) ([]models.LocationSample, error) {
	if !jsonl {
		var samples []models.LocationSample
		if err := json.NewDecoder(r).Decode(&samples); err != nil {
			return nil, err
		}
		return samples, nil
	}

	var samples []models.LocationSample
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var s models.LocationSample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, scanner.Err()
}

// eventPrinter writes geofence events as they are committed.
type eventPrinter struct {
	w io.Writer
}

func (p *eventPrinter) Notify(caregiverID string, record models.HistoryRecord, events []models.GeofenceEvent) {
	for _, e := range events {
		fmt.Fprintf(p.w, "%s %s %s %s (%s)\n", e.OccurredAt.Format(time.RFC3339), caregiverID, e.Kind, e.ZoneName, record.ID)
	}
}
