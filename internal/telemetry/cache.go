package telemetry

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/metrics"
)

// DefaultMaxQueueLen bounds a session's unread queue when the Cache is
// built with a non-positive limit.
const DefaultMaxQueueLen = 10000

type sessionQueue struct {
	samples     []float64
	lastDrained time.Time
}

// bedEntry holds the per-session unread queues for one bed, one map per
// waveform kind. Entry-level mutex: operations on different beds never
// contend.
type bedEntry struct {
	mu     sync.Mutex
	queues map[Kind]map[string]*sessionQueue
}

func newBedEntry() *bedEntry {
	return &bedEntry{
		queues: map[Kind]map[string]*sessionQueue{
			KindPPG: {},
			KindECG: {},
		},
	}
}

// Cache multiplexes the single ingest stream of waveform samples to any
// number of viewer sessions. One instance is shared by the ingest loop and
// every session; all cross-goroutine traffic goes through it.
type Cache struct {
	mu          sync.RWMutex
	beds        map[BedKey]*bedEntry
	maxQueueLen int
}

// NewCache creates a Cache whose per-session queues hold at most
// maxQueueLen samples; the oldest samples are dropped on overflow.
func NewCache(maxQueueLen int) *Cache {
	if maxQueueLen <= 0 {
		maxQueueLen = DefaultMaxQueueLen
	}
	return &Cache{
		beds:        make(map[BedKey]*bedEntry),
		maxQueueLen: maxQueueLen,
	}
}

func (c *Cache) entry(bed BedKey, create bool) *bedEntry {
	c.mu.RLock()
	e, ok := c.beds[bed]
	c.mu.RUnlock()
	if ok || !create {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok = c.beds[bed]; ok {
		return e
	}
	e = newBedEntry()
	c.beds[bed] = e
	return e
}

// RegisterSession ensures an empty queue exists for the session under both
// waveform kinds for this bed. Idempotent: re-registering keeps any
// undelivered samples.
func (c *Cache) RegisterSession(bed BedKey, sessionID string) {
	e := c.entry(bed, true)

	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	added := false
	for _, bySession := range e.queues {
		if _, ok := bySession[sessionID]; !ok {
			bySession[sessionID] = &sessionQueue{lastDrained: now}
			added = true
		}
	}
	if added {
		metrics.IncRegisteredSessions()
	}
}

// AppendSamples appends the batch to every registered session's queue for
// (bed, kind). With no registered sessions the batch is discarded; that is
// the expected idle state, not an error.
func (c *Cache) AppendSamples(bed BedKey, kind Kind, samples []float64) {
	if len(samples) == 0 {
		return
	}
	e := c.entry(bed, false)
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for sessionID, q := range e.queues[kind] {
		q.samples = append(q.samples, samples...)
		if overflow := len(q.samples) - c.maxQueueLen; overflow > 0 {
			q.samples = q.samples[overflow:]
			metrics.RecordDroppedSamples(string(kind), overflow)
			log.Warn().
				Str("bed", bed.String()).
				Str("kind", string(kind)).
				Str("session", sessionID).
				Int("dropped", overflow).
				Msg("Session queue overflow, dropped oldest samples")
		}
	}
}

// DrainAndClear atomically returns the session's unread samples for the
// kind and resets the queue to empty. Absent bed, session or kind yields an
// empty slice.
func (c *Cache) DrainAndClear(bed BedKey, sessionID string, kind Kind) []float64 {
	e := c.entry(bed, false)
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queues[kind][sessionID]
	if !ok {
		return nil
	}
	drained := q.samples
	q.samples = nil
	q.lastDrained = time.Now()
	return drained
}

// DeregisterSession removes the session's queues under both kinds. The bed
// entry itself is removed once no sessions remain, so idle beds cost
// nothing.
func (c *Cache) DeregisterSession(bed BedKey, sessionID string) {
	e := c.entry(bed, false)
	if e == nil {
		return
	}

	e.mu.Lock()
	removed := false
	empty := true
	for _, bySession := range e.queues {
		if _, ok := bySession[sessionID]; ok {
			delete(bySession, sessionID)
			removed = true
		}
		if len(bySession) > 0 {
			empty = false
		}
	}
	e.mu.Unlock()

	if removed {
		metrics.DecRegisteredSessions()
	}
	if empty {
		c.mu.Lock()
		// Re-check under the write lock; a register may have raced in.
		if e2, ok := c.beds[bed]; ok && e2 == e {
			e.mu.Lock()
			stillEmpty := len(e.queues[KindPPG]) == 0 && len(e.queues[KindECG]) == 0
			e.mu.Unlock()
			if stillEmpty {
				delete(c.beds, bed)
			}
		}
		c.mu.Unlock()
	}
}

// ExpireIdle drops sessions that have not drained within maxIdle. It guards
// against viewers that vanished without deregistering (abnormal
// disconnects) and returns the number of sessions removed.
func (c *Cache) ExpireIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	c.mu.RLock()
	beds := make([]BedKey, 0, len(c.beds))
	for bed := range c.beds {
		beds = append(beds, bed)
	}
	c.mu.RUnlock()

	expired := 0
	for _, bed := range beds {
		e := c.entry(bed, false)
		if e == nil {
			continue
		}

		var stale []string
		e.mu.Lock()
		for sessionID, q := range e.queues[KindPPG] {
			if q.lastDrained.Before(cutoff) {
				stale = append(stale, sessionID)
			}
		}
		// Sessions registered under ECG only can exist if a caller bypassed
		// RegisterSession; sweep those too.
		for sessionID, q := range e.queues[KindECG] {
			if _, ok := e.queues[KindPPG][sessionID]; !ok && q.lastDrained.Before(cutoff) {
				stale = append(stale, sessionID)
			}
		}
		e.mu.Unlock()

		for _, sessionID := range stale {
			log.Warn().
				Str("bed", bed.String()).
				Str("session", sessionID).
				Msg("Expiring idle viewer session")
			c.DeregisterSession(bed, sessionID)
			expired++
		}
	}
	return expired
}

// Sessions reports the number of registered sessions for a bed.
func (c *Cache) Sessions(bed BedKey) int {
	e := c.entry(bed, false)
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.queues[KindPPG])
	if m := len(e.queues[KindECG]); m > n {
		n = m
	}
	return n
}
