package services

import (
	"context"
	"log"
	"sync"

	"github.com/terraincognita07/cyclemark/internal/models"
)

type CycleRecordWriter interface {
	Upsert(record models.CycleRecord) error
}

// RecordFlusher persists cycle records off the request path. Pending writes
// are coalesced per user, so only the newest full record is saved. A failed
// save is remembered per user until a later save for that user succeeds.
type RecordFlusher struct {
	records CycleRecordWriter

	mu       sync.Mutex
	pending  map[uint]models.CycleRecord
	inFlight map[uint]bool
	failures map[uint]error

	wake chan struct{}
}

func NewRecordFlusher(records CycleRecordWriter) *RecordFlusher {
	return &RecordFlusher{
		records:  records,
		pending:  make(map[uint]models.CycleRecord),
		inFlight: make(map[uint]bool),
		failures: make(map[uint]error),
		wake:     make(chan struct{}, 1),
	}
}

func (flusher *RecordFlusher) Enqueue(record models.CycleRecord) {
	flusher.mu.Lock()
	flusher.pending[record.UserID] = record
	flusher.mu.Unlock()

	select {
	case flusher.wake <- struct{}{}:
	default:
	}
}

// Start drains the queue in a background goroutine until ctx is done, then
// performs one last drain. The returned channel closes after that drain.
func (flusher *RecordFlusher) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				flusher.Flush()
				return
			case <-flusher.wake:
				flusher.Flush()
			}
		}
	}()
	return done
}

// Pending reports whether a record for the user is queued or being saved.
func (flusher *RecordFlusher) Pending(userID uint) bool {
	flusher.mu.Lock()
	defer flusher.mu.Unlock()
	_, queued := flusher.pending[userID]
	return queued || flusher.inFlight[userID]
}

// Flush saves every pending record synchronously and returns how many saves
// failed.
func (flusher *RecordFlusher) Flush() int {
	flusher.mu.Lock()
	batch := flusher.pending
	flusher.pending = make(map[uint]models.CycleRecord)
	for userID := range batch {
		flusher.inFlight[userID] = true
	}
	flusher.mu.Unlock()

	failed := 0
	for userID, record := range batch {
		err := flusher.records.Upsert(record)

		flusher.mu.Lock()
		delete(flusher.inFlight, userID)
		if err != nil {
			failed++
			flusher.failures[userID] = err
		} else {
			delete(flusher.failures, userID)
		}
		flusher.mu.Unlock()

		if err != nil {
			log.Printf("flusher: save failed for user %d: %v", userID, err)
		}
	}
	return failed
}

func (flusher *RecordFlusher) LastFailure(userID uint) error {
	flusher.mu.Lock()
	defer flusher.mu.Unlock()
	return flusher.failures[userID]
}
