package imstate

import (
	"io"
	"os"
	"time"

	"github.com/function61/gokit/atomicfilewrite"
	"github.com/function61/gokit/jsonfile"
	"github.com/function61/gokit/logex"
)

// FileStore persists the state document as a single JSON file. Save() goes
// through a temp file + atomic rename, so a crash mid-write can never leave
// the canonical file truncated. Callers (the Tracker) serialize access.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// never fails: a missing or unparseable file yields a fresh default document
// (empty subscriber set, 24h threshold, timestamps = now)
func (s *FileStore) Load(now time.Time, logl *logex.Leveled) Document {
	doc := newDocument(now)

	if err := jsonfile.Read(s.path, &doc, false); err != nil {
		if !os.IsNotExist(err) {
			logl.Error.Printf("state file unreadable, starting from defaults: %v", err)
		}

		return newDocument(now)
	}

	// tolerate hand-edited or partially-empty documents
	if doc.Subscribers == nil {
		doc.Subscribers = []string{}
	}
	if doc.MaxIdleSeconds < 0 {
		doc.MaxIdleSeconds = DefaultMaxIdleSeconds
	}
	if doc.IdleSince.IsZero() {
		doc.IdleSince = now.UTC()
	}
	if doc.LastUpdate.IsZero() {
		doc.LastUpdate = now.UTC()
	}

	return doc
}

func (s *FileStore) Save(doc Document) error {
	return atomicfilewrite.Write(s.path, func(writer io.Writer) error {
		return jsonfile.Marshal(writer, doc)
	})
}
