package orders

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// JournalOrder is the audit record written for every submitted order.
type JournalOrder struct {
	ID             string    `json:"id"`
	BundleID       string    `json:"bundle_id"`
	Instrument     string    `json:"instrument"`
	Kind           string    `json:"kind"`
	Action         string    `json:"action"`
	Quantity       int       `json:"quantity"`
	Price          float64   `json:"price,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// JournalFill is the audit record written for every accepted fill.
type JournalFill struct {
	OrderID    string    `json:"order_id"`
	Instrument string    `json:"instrument"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
}

type journalEntry struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data"`
	Event time.Time   `json:"event"`
}

// Journal is an append-only JSONL audit trail of orders and fills, with a
// time-windowed idempotency scan to stop duplicate submissions.
type Journal struct {
	path         string
	dedupeWindow time.Duration
}

func NewJournal(path string, dedupeWindowSecs int) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &Journal{
		path:         path,
		dedupeWindow: time.Duration(dedupeWindowSecs) * time.Second,
	}, nil
}

func (j *Journal) WriteOrder(o JournalOrder) error {
	return j.appendEntry(journalEntry{Type: "order", Data: o, Event: time.Now().UTC()})
}

func (j *Journal) WriteFill(f JournalFill) error {
	return j.appendEntry(journalEntry{Type: "fill", Data: f, Event: time.Now().UTC()})
}

func (j *Journal) appendEntry(entry journalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(string(data) + "\n")
	return err
}

// HasRecentOrder reports whether an order with this idempotency key was
// journaled inside the dedupe window.
func (j *Journal) HasRecentOrder(idempotencyKey string) (bool, error) {
	if _, err := os.Stat(j.path); os.IsNotExist(err) {
		return false, nil
	}
	data, err := os.ReadFile(j.path)
	if err != nil {
		return false, err
	}

	cutoff := time.Now().UTC().Add(-j.dedupeWindow)
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		var entry journalEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Type != "order" || entry.Event.Before(cutoff) {
			continue
		}
		raw, err := json.Marshal(entry.Data)
		if err != nil {
			continue
		}
		var o JournalOrder
		if err := json.Unmarshal(raw, &o); err != nil {
			continue
		}
		if o.IdempotencyKey == idempotencyKey {
			return true, nil
		}
	}
	return false, nil
}
