package pipeline

import (
	"sync"
	"time"

	"github.com/openlovable/lovable/pipeline/contracts"
	"github.com/openlovable/lovable/pipeline/models"
)

const defaultMaxLogEntries = 2000

// LogBook keeps the most recent log entries and fans new ones out to
// subscribers. A subscriber that is not keeping up misses entries rather
// than blocking the writer.
type LogBook struct {
	mu          sync.Mutex
	entries     []models.LogEntry
	maxEntries  int
	seq         uint64
	subscribers map[int]chan models.LogEntry
	nextID      int
	closed      bool
}

func NewLogBook(maxEntries int) contracts.ILogBook {
	if maxEntries <= 0 {
		maxEntries = defaultMaxLogEntries
	}
	return &LogBook{maxEntries: maxEntries, subscribers: make(map[int]chan models.LogEntry)}
}

func (lb *LogBook) Append(source string, message string) models.LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.appendLocked(source, message)
}

func (lb *LogBook) appendLocked(source string, message string) models.LogEntry {
	lb.seq++
	entry := models.LogEntry{Seq: lb.seq, Time: time.Now(), Source: source, Message: message}

	lb.entries = append(lb.entries, entry)
	if len(lb.entries) > lb.maxEntries {
		lb.entries = append([]models.LogEntry(nil), lb.entries[len(lb.entries)-lb.maxEntries:]...)
	}

	for _, subscriber := range lb.subscribers {
		select {
		case subscriber <- entry:
		default:
		}
	}
	return entry
}

func (lb *LogBook) Entries() []models.LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return append([]models.LogEntry(nil), lb.entries...)
}

// Subscribe returns a channel of entries appended from now on and a cancel
// function that closes it. After Close the channel is returned closed.
func (lb *LogBook) Subscribe(buffer int) (<-chan models.LogEntry, func()) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan models.LogEntry, buffer)
	if lb.closed {
		close(ch)
		return ch, func() {}
	}

	id := lb.nextID
	lb.nextID++
	lb.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			lb.mu.Lock()
			defer lb.mu.Unlock()
			if subscriber, ok := lb.subscribers[id]; ok {
				delete(lb.subscribers, id)
				close(subscriber)
			}
		})
	}
}

// Reset drops every entry and starts over with messages from the pipeline.
// Sequence numbers keep increasing so subscribers can tell entries apart.
func (lb *LogBook) Reset(messages ...string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries = nil
	for _, message := range messages {
		lb.appendLocked(models.SourcePipeline, message)
	}
}

// Close ends every subscription.
func (lb *LogBook) Close() {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.closed {
		return
	}
	lb.closed = true
	for id, subscriber := range lb.subscribers {
		delete(lb.subscribers, id)
		close(subscriber)
	}
}
