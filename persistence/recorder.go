package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/models"
)

const saveTimeout = 5 * time.Second

// AsyncRecorder hands finished rounds to a background writer so the game
// loop never waits on the database. When the queue is full the record is
// dropped.
type AsyncRecorder struct {
	db     Database
	queue  chan *models.RoundRecord
	onDrop func()

	mutex  sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncRecorder starts the writer. onDrop may be nil.
func NewAsyncRecorder(db Database, buffer int, onDrop func()) *AsyncRecorder {
	if buffer <= 0 {
		buffer = 1
	}
	r := &AsyncRecorder{
		db:     db,
		queue:  make(chan *models.RoundRecord, buffer),
		onDrop: onDrop,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *AsyncRecorder) Record(rec *models.RoundRecord) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		r.drop(rec, "recorder closed")
		return
	}
	select {
	case r.queue <- rec:
	default:
		r.drop(rec, "queue full")
	}
}

func (r *AsyncRecorder) drop(rec *models.RoundRecord, why string) {
	logger.Log.Warnw("Dropping round record", "room", rec.RoomCode, "round", rec.Round, "reason", why)
	if r.onDrop != nil {
		r.onDrop()
	}
}

func (r *AsyncRecorder) run() {
	defer r.wg.Done()
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := r.db.SaveRoundRecord(ctx, rec); err != nil {
			logger.Log.Errorw("Failed to save round record", "room", rec.RoomCode, "round", rec.Round, "error", err)
		}
		cancel()
	}
}

// Close stops accepting records and waits for queued ones to be written.
func (r *AsyncRecorder) Close() {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mutex.Unlock()
	r.wg.Wait()
}
