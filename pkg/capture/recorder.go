package capture

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// Recorder collects records in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Add records a copy of data.
func (r *Recorder) Add(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = r.now()
	}
	rec.Data = append([]byte(nil), rec.Data...)

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Records returns a snapshot of the records.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Save writes the records to store under a new id and returns the id.
func (r *Recorder) Save(ctx context.Context, store Store) (string, error) {
	id := NewID()
	if err := store.Put(ctx, id, Encode(r.Records())); err != nil {
		return "", err
	}
	return id, nil
}

// NewID returns a new capture id.
func NewID() string {
	return ksuid.New().String()
}

// ValidID reports whether id is a well-formed capture id.
func ValidID(id string) bool {
	_, err := ksuid.Parse(id)
	return err == nil
}
