// Package hub fans committed location records and geofence events out to the
// live viewers of each caregiver.
package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"care_tracker/internal/models"
)

const DefaultBuffer = 16

// Update is what a subscriber receives for one committed sample.
type Update struct {
	Record models.HistoryRecord   `json:"record"`
	Events []models.GeofenceEvent `json:"events"`
}

// Subscription is one registered viewer. Updates arrive on C until the
// subscription is closed, after which C is closed.
type Subscription struct {
	id          string
	caregiverID string
	ch          chan Update
	hub         *Hub
}

func (s *Subscription) ID() string          { return s.id }
func (s *Subscription) CaregiverID() string { return s.caregiverID }
func (s *Subscription) C() <-chan Update    { return s.ch }

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() { s.hub.Unsubscribe(s) }

// Hub is a registry of subscriptions keyed by caregiver id.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[string]*Subscription
	buffer int
	closed bool
}

// New creates a hub whose subscriptions buffer up to buffer updates each.
func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[string]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers a viewer for caregiverID. It only sees updates notified
// after this call returns.
func (h *Hub) Subscribe(caregiverID string) *Subscription {
	sub := &Subscription{
		id:          uuid.NewString(),
		caregiverID: caregiverID,
		ch:          make(chan Update, h.buffer),
		hub:         h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	clients, ok := h.subs[caregiverID]
	if !ok {
		clients = make(map[string]*Subscription)
		h.subs[caregiverID] = clients
	}
	clients[sub.id] = sub

	logrus.WithFields(logrus.Fields{
		"caregiver_id":    caregiverID,
		"subscription_id": sub.id,
	}).Info("Viewer subscribed to location updates.")
	return sub
}

// Unsubscribe removes and closes a subscription.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.subs[sub.caregiverID]
	if !ok {
		return
	}
	if _, ok := clients[sub.id]; !ok {
		return
	}
	delete(clients, sub.id)
	close(sub.ch)
	if len(clients) == 0 {
		delete(h.subs, sub.caregiverID)
	}

	logrus.WithFields(logrus.Fields{
		"caregiver_id":    sub.caregiverID,
		"subscription_id": sub.id,
	}).Info("Viewer unsubscribed from location updates.")
}

// Notify delivers an update to every subscription registered for caregiverID at
// the time of the call. A subscriber whose buffer is full misses the update.
func (h *Hub) Notify(caregiverID string, record models.HistoryRecord, events []models.GeofenceEvent) {
	update := Update{Record: record, Events: append([]models.GeofenceEvent(nil), events...)}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs[caregiverID] {
		select {
		case sub.ch <- update:
		default:
			logrus.WithFields(logrus.Fields{
				"caregiver_id":    caregiverID,
				"subscription_id": id,
				"record_id":       record.ID,
			}).Warn("Subscriber buffer full, dropping location update.")
		}
	}
}

// Count returns the number of live subscriptions for caregiverID.
func (h *Hub) Count(caregiverID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[caregiverID])
}

// Close closes every subscription. Later subscriptions are born closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for caregiverID, clients := range h.subs {
		for _, sub := range clients {
			close(sub.ch)
		}
		delete(h.subs, caregiverID)
	}
}
