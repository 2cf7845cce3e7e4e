package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"care_tracker/internal/config"
	"care_tracker/internal/models"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func historyRecord(id, caregiverID string, at time.Time, distance float64, checkpoint bool) *models.HistoryRecord {
	return &models.HistoryRecord{
		ID:               id,
		CaregiverID:      caregiverID,
		Latitude:         -1.29,
		Longitude:        36.82,
		Timestamp:        at,
		ConnectionStatus: models.StatusOnline,
		IsCheckpoint:     checkpoint,
		DistanceTraveled: distance,
		CreatedAt:        at.Add(time.Second),
	}
}

// historyBackends runs the same assertions against every History implementation.
func historyBackends(t *testing.T, fn func(t *testing.T, h History)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("gorm", func(t *testing.T) { fn(t, NewGormHistoryStore(openTestDB(t))) })
}

func TestHistory_EmptyCaregiver(t *testing.T) {
	historyBackends(t, func(t *testing.T, h History) {
		ctx := context.Background()

		snap, err := h.Snapshot(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, snap.Latest)
		assert.Nil(t, snap.LastCheckpointAt)
		assert.Zero(t, snap.TotalDistanceKm)

		latest, err := h.Latest(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, latest)

		records, err := h.List(ctx, "nobody", 10)
		require.NoError(t, err)
		assert.Empty(t, records)

		stats, err := h.Stats(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, stats.TotalRecords)
		assert.Nil(t, stats.Latest)
	})
}

func TestHistory_AppendAndRead(t *testing.T) {
	historyBackends(t, func(t *testing.T, h History) {
		ctx := context.Background()
		require.NoError(t, h.Append(ctx, historyRecord("r1", "cg-1", t0, 0, true)))
		require.NoError(t, h.Append(ctx, historyRecord("r2", "cg-1", t0.Add(time.Minute), 1.5, false)))
		require.NoError(t, h.Append(ctx, historyRecord("r3", "cg-1", t0.Add(20*time.Minute), 2.5, true)))
		require.NoError(t, h.Append(ctx, historyRecord("r4", "cg-1", t0.Add(21*time.Minute), 0.25, false)))
		require.NoError(t, h.Append(ctx, historyRecord("other", "cg-2", t0.Add(time.Hour), 100, true)))

		records, err := h.List(ctx, "cg-1", 0)
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, ids(records))

		records, err = h.List(ctx, "cg-1", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"r3", "r4"}, ids(records), "the most recent records, oldest first")

		latest, err := h.Latest(ctx, "cg-1")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "r4", latest.ID)
		assert.True(t, t0.Add(21*time.Minute).Equal(latest.Timestamp))

		snap, err := h.Snapshot(ctx, "cg-1")
		require.NoError(t, err)
		require.NotNil(t, snap.Latest)
		assert.Equal(t, "r4", snap.Latest.ID)
		require.NotNil(t, snap.LastCheckpointAt)
		assert.True(t, t0.Add(20*time.Minute).Equal(*snap.LastCheckpointAt))
		assert.InDelta(t, 4.25, snap.TotalDistanceKm, 1e-9)

		stats, err := h.Stats(ctx, "cg-1")
		require.NoError(t, err)
		assert.EqualValues(t, 4, stats.TotalRecords)
		assert.EqualValues(t, 2, stats.Checkpoints)
		assert.InDelta(t, 4.25, stats.TotalDistanceKm, 1e-9)
		require.NotNil(t, stats.Latest)
		assert.Equal(t, "r4", stats.Latest.ID)
	})
}

func TestHistory_OptionalFieldsRoundTrip(t *testing.T) {
	historyBackends(t, func(t *testing.T, h History) {
		ctx := context.Background()
		battery, speed := 42.0, 3.5
		r := historyRecord("r1", "cg-1", t0, 0, true)
		r.BatteryLevel = &battery
		r.Speed = &speed
		r.DeviceStatus = "low_battery"
		require.NoError(t, h.Append(ctx, r))

		got, err := h.Latest(ctx, "cg-1")
		require.NoError(t, err)
		require.NotNil(t, got.BatteryLevel)
		assert.Equal(t, 42.0, *got.BatteryLevel)
		require.NotNil(t, got.Speed)
		assert.Equal(t, 3.5, *got.Speed)
		assert.Nil(t, got.Accuracy)
		assert.Equal(t, "low_battery", got.DeviceStatus)
		assert.Equal(t, models.StatusOnline, got.ConnectionStatus)
	})
}

func TestGormHistory_DuplicateIDFails(t *testing.T) {
	h := NewGormHistoryStore(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, historyRecord("r1", "cg-1", t0, 0, true)))
	err := h.Append(ctx, historyRecord("r1", "cg-1", t0.Add(time.Minute), 0, false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r1")
}

func TestZones(t *testing.T) {
	zones := []models.SafeZone{
		{ID: "b", CaregiverID: "cg-1", Name: "School", Latitude: 1, Longitude: 2, Radius: 150, AlertOnExit: true},
		{ID: "a", CaregiverID: "cg-1", Name: "Home", Radius: 300, AlertOnEntry: true, AlertOnExit: true},
		{ID: "c", CaregiverID: "cg-2", Name: "Clinic", Radius: 50},
	}

	mem := NewMemoryStore()
	db := openTestDB(t)
	for _, z := range zones {
		mem.PutZone(z)
		require.NoError(t, db.Create(&z).Error)
	}

	for name, src := range map[string]interface {
		ZonesFor(context.Context, string) ([]models.SafeZone, error)
	}{"memory": mem, "gorm": NewGormZoneStore(db)} {
		got, err := src.ZonesFor(context.Background(), "cg-1")
		require.NoError(t, err, name)
		require.Len(t, got, 2, name)
		assert.Equal(t, "a", got[0].ID, name)
		assert.Equal(t, "b", got[1].ID, name)
		assert.Equal(t, 150.0, got[1].Radius, name)
		assert.True(t, got[1].AlertOnExit, name)
		assert.False(t, got[1].AlertOnEntry, name)
	}

	mem.RemoveZone("cg-1", "a")
	got, err := mem.ZonesFor(context.Background(), "cg-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDevices(t *testing.T) {
	ctx := context.Background()
	devices := NewGormDeviceStore(openTestDB(t))

	created, err := devices.Register(ctx, models.Device{ID: "dev-1", CaregiverID: "cg-1", Name: "watch"}, "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", created.KeyHash)

	found, err := devices.FindDevice(ctx, "dev-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "cg-1", found.CaregiverID)
	assert.Equal(t, created.KeyHash, found.KeyHash)

	missing, err := devices.FindDevice(ctx, "dev-2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = devices.Register(ctx, models.Device{ID: "dev-3", CaregiverID: "cg-1"}, "")
	assert.Error(t, err)

	mem := NewMemoryStore()
	mem.PutDevice(*found)
	got, err := mem.FindDevice(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, found.KeyHash, got.KeyHash)
	got, err = mem.FindDevice(ctx, "dev-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func ids(records []models.HistoryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
