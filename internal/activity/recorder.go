package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/user/seometrics/internal/db"
	"github.com/user/seometrics/internal/hub"
	"github.com/user/seometrics/internal/orchestrator"
)

const (
	defaultBufferSize = 256
	persistTimeout    = 5 * time.Second
)

// Feed receives live activity events; satisfied by *hub.Hub.
type Feed interface {
	BroadcastActivity(msg hub.ActivityMessage)
}

// Recorder is the asynchronous activity sink behind the orchestration loop.
// Record never blocks and never fails the caller: events queue onto a bounded
// channel and a single worker persists and broadcasts them. When the queue is
// full the event is dropped and counted.
type Recorder struct {
	repo   *db.ActivityRepo
	feed   Feed
	events chan event
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	dropped   int64
}

type event struct {
	userToken  string
	capability string
	args       map[string]any
	result     orchestrator.Envelope
	siteURL    string
	occurredAt time.Time
}

func NewRecorder(repo *db.ActivityRepo, feed Feed) *Recorder {
	r := &Recorder{
		repo:   repo,
		feed:   feed,
		events: make(chan event, defaultBufferSize),
		done:   make(chan struct{}),
	}
	go r.worker()
	return r
}

func (r *Recorder) Record(userToken string, capabilityName string, args map[string]any, result orchestrator.Envelope, siteURL string) {
	if r == nil {
		return
	}
	select {
	case r.events <- event{
		userToken:  userToken,
		capability: capabilityName,
		args:       args,
		result:     result,
		siteURL:    siteURL,
		occurredAt: time.Now().UTC(),
	}:
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		slog.Warn("activity queue full, dropping event", "capability", capabilityName, "dropped_total", dropped)
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops accepting events and drains what is already queued.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		close(r.events)
	})
	<-r.done
}

func (r *Recorder) worker() {
	defer close(r.done)
	for ev := range r.events {
		r.handle(ev)
	}
}

func (r *Recorder) handle(ev event) {
	record := &db.ActivityRecord{
		UserToken:  ev.userToken,
		Capability: ev.capability,
		Args:       marshalArgs(ev.args),
		Success:    ev.result.Success,
		Error:      ev.result.Error,
		SiteURL:    ev.siteURL,
	}

	if r.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := r.repo.Create(ctx, record)
		cancel()
		if err != nil {
			slog.Warn("persist activity record failed", "capability", ev.capability, "error", err)
		}
	}

	if r.feed != nil {
		r.feed.BroadcastActivity(hub.ActivityMessage{
			Type:       "tool_activity",
			ID:         record.ID,
			Capability: ev.capability,
			Args:       ev.args,
			Success:    ev.result.Success,
			Error:      ev.result.Error,
			SiteURL:    ev.siteURL,
			Ts:         ev.occurredAt.Unix(),
		})
	}
}

func marshalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	buf, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(buf)
}
