package imstate

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/function61/gokit/logex"
	"github.com/idlemon/idlemon/pkg/prettyduration"
)

// Tracker owns the state document. All mutations are read-modify-write under
// one mutex and persist before returning, so the background loop and
// concurrent webhook requests can never lose each other's updates.
type Tracker struct {
	mu    sync.Mutex
	doc   Document
	store *FileStore
	logl  *logex.Leveled
}

func NewTracker(store *FileStore, now time.Time, logger *log.Logger) *Tracker {
	logl := logex.Levels(logger)

	return &Tracker{
		doc:   store.Load(now, logl),
		store: store,
		logl:  logl,
	}
}

// called once per fresh idle report from the monitored machine/agent
func (t *Tracker) RecordUpdate(idleSince time.Time, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.doc.IdleSince = idleSince.UTC()
	t.doc.LastUpdate = now.UTC()

	return t.store.Save(t.doc)
}

func (t *Tracker) SetMaxIdle(seconds int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.doc.MaxIdleSeconds = seconds

	return t.store.Save(t.doc)
}

// no-op if already subscribed
func (t *Tracker) AddSubscriber(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sub := range t.doc.Subscribers {
		if sub == id {
			return nil
		}
	}

	t.doc.Subscribers = append(t.doc.Subscribers, id)

	return t.store.Save(t.doc)
}

// no-op if not subscribed
func (t *Tracker) RemoveSubscriber(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := []string{}
	for _, sub := range t.doc.Subscribers {
		if sub != id {
			kept = append(kept, sub)
		}
	}

	if len(kept) == len(t.doc.Subscribers) {
		return nil
	}

	t.doc.Subscribers = kept

	return t.store.Save(t.doc)
}

func (t *Tracker) Subscribers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string{}, t.doc.Subscribers...)
}

func (t *Tracker) IsSubscriber(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sub := range t.doc.Subscribers {
		if sub == id {
			return true
		}
	}

	return false
}

func (t *Tracker) MaxIdle() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.doc.MaxIdleSeconds
}

func (t *Tracker) Document() Document {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc := t.doc
	doc.Subscribers = append([]string{}, t.doc.Subscribers...)

	return doc
}

// classifies the current state along with a human-readable explanation
// suitable as notification text
func (t *Tracker) Evaluate(now time.Time) (Classification, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return evaluate(t.doc, now)
}

// pure. STALE (no fresh update within threshold) wins over IDLE.
func evaluate(doc Document, now time.Time) (Classification, string) {
	maxIdle := time.Duration(doc.MaxIdleSeconds) * time.Second

	sinceUpdate := now.Sub(doc.LastUpdate)
	sinceIdle := now.Sub(doc.IdleSince)

	switch {
	case sinceUpdate > maxIdle:
		return ClassificationStale, fmt.Sprintf(
			"No update since %s (%s ago) - machine unreachable?",
			doc.LastUpdate.Format(time.RFC3339),
			prettyduration.FormatDuration(sinceUpdate))
	case sinceIdle > maxIdle:
		return ClassificationIdle, fmt.Sprintf(
			"Idle since %s (%s)",
			doc.IdleSince.Format(time.RFC3339),
			prettyduration.FormatDuration(sinceIdle))
	default:
		return ClassificationOK, fmt.Sprintf(
			"Active (last update %s ago)",
			prettyduration.FormatDuration(sinceUpdate))
	}
}

func (t *Tracker) StatusText(now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf(
		"Idle for %s (since %s); last update %s ago (%s); max idle %s",
		prettyduration.FormatDuration(now.Sub(t.doc.IdleSince)),
		t.doc.IdleSince.Format(time.RFC3339),
		prettyduration.FormatDuration(now.Sub(t.doc.LastUpdate)),
		t.doc.LastUpdate.Format(time.RFC3339),
		prettyduration.Format(t.doc.MaxIdleSeconds))
}
