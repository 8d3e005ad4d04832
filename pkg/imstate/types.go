// Package imstate tracks the idle/active state of the monitored machine:
// the durable state document, its crash-safe persistence and the
// OK / IDLE / STALE classification computed from it.
package imstate

import (
	"time"
)

const DefaultMaxIdleSeconds = 24 * 3600

// the durable document. lives for the whole process run - it is only ever
// mutated and overwritten, never deleted.
type Document struct {
	Subscribers    []string  `json:"subs"`
	MaxIdleSeconds int64     `json:"max_idle"`
	IdleSince      time.Time `json:"idle_since"`
	LastUpdate     time.Time `json:"last_update"`
}

func newDocument(now time.Time) Document {
	return Document{
		Subscribers:    []string{},
		MaxIdleSeconds: DefaultMaxIdleSeconds,
		IdleSince:      now.UTC(),
		LastUpdate:     now.UTC(),
	}
}

// computed from the document and current time, never stored
type Classification string

const (
	ClassificationOK    Classification = "OK"
	ClassificationIdle  Classification = "IDLE"
	ClassificationStale Classification = "STALE"
)
