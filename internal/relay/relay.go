// Package relay carries committed location updates between service instances
// over postgres LISTEN/NOTIFY, so a viewer connected to one instance sees samples
// ingested by another.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"care_tracker/internal/models"
	"care_tracker/internal/telemetry"
)

// maxPayload is postgres' NOTIFY payload limit (8000 bytes) minus a terminator.
const maxPayload = 7999

// Envelope is the NOTIFY payload.
type Envelope struct {
	CaregiverID string                 `json:"caregiver_id"`
	Record      models.HistoryRecord   `json:"record"`
	Events      []models.GeofenceEvent `json:"events,omitempty"`
}

func EncodeEnvelope(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode relay envelope: %w", err)
	}
	if len(data) > maxPayload {
		return nil, fmt.Errorf("relay envelope is %d bytes, limit %d", len(data), maxPayload)
	}
	return data, nil
}

func DecodeEnvelope(payload string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return env, fmt.Errorf("decode relay envelope: %w", err)
	}
	if env.CaregiverID == "" {
		return env, fmt.Errorf("decode relay envelope: missing caregiver_id")
	}
	return env, nil
}

// Publisher is a telemetry.Notifier that NOTIFYs committed records.
type Publisher struct {
	db      *gorm.DB
	channel string
}

func NewPublisher(db *gorm.DB, channel string) *Publisher {
	return &Publisher{db: db, channel: channel}
}

func (p *Publisher) Notify(caregiverID string, record models.HistoryRecord, events []models.GeofenceEvent) {
	data, err := EncodeEnvelope(Envelope{CaregiverID: caregiverID, Record: record, Events: events})
	if err != nil {
		logrus.WithError(err).WithField("record_id", record.ID).Error("Failed to build relay payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", p.channel, string(data)).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"caregiver_id": caregiverID,
			"record_id":    record.ID,
		}).Error("Failed to publish location update")
	}
}

// Listener LISTENs on the relay channel and hands each update to target.
type Listener struct {
	listener *pq.Listener
	channel  string
	target   telemetry.Notifier
}

func NewListener(dsn, channel string, target telemetry.Notifier) (*Listener, error) {
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).WithField("event", ev).Warn("Relay listener connection event")
		}
	})
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("listen on %s: %w", channel, err)
	}
	return &Listener{listener: l, channel: channel, target: target}, nil
}

// Run forwards notifications until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	logrus.WithField("channel", l.channel).Info("Relay listener started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n := <-l.listener.Notify:
			// nil after a reconnect; anything sent meanwhile is lost
			if n == nil {
				continue
			}
			env, err := DecodeEnvelope(n.Extra)
			if err != nil {
				logrus.WithError(err).Warn("Dropping malformed relay payload")
				continue
			}
			l.target.Notify(env.CaregiverID, env.Record, env.Events)

		case <-time.After(90 * time.Second):
			go l.listener.Ping()
		}
	}
}

func (l *Listener) Close() error {
	return l.listener.Close()
}
