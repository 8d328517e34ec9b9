package hub

import (
	"sync"
	"time"
)

// Batcher coalesces activity messages per site so a burst of parallel
// invocations reaches clients as one frame instead of many.
type Batcher struct {
	mu       sync.Mutex
	pending  map[string]*pendingBatch
	interval time.Duration
	onFlush  func(siteURL string, msg BatchMessage)
}

type pendingBatch struct {
	items []ActivityMessage
	timer *time.Timer
}

func NewBatcher(interval time.Duration, onFlush func(string, BatchMessage)) *Batcher {
	return &Batcher{
		pending:  make(map[string]*pendingBatch),
		interval: interval,
		onFlush:  onFlush,
	}
}

func (b *Batcher) Add(msg ActivityMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	siteURL := msg.SiteURL
	p, exists := b.pending[siteURL]
	if !exists {
		p = &pendingBatch{}
		b.pending[siteURL] = p
	}
	p.items = append(p.items, msg)

	if p.timer == nil {
		p.timer = time.AfterFunc(b.interval, func() {
			b.flushSite(siteURL)
		})
	}
}

func (b *Batcher) flushSite(siteURL string) {
	b.mu.Lock()
	p, exists := b.pending[siteURL]
	if !exists {
		b.mu.Unlock()
		return
	}
	delete(b.pending, siteURL)
	b.mu.Unlock()

	if b.onFlush != nil && len(p.items) > 0 {
		b.onFlush(siteURL, BatchMessage{
			Type:    "activity_batch",
			SiteURL: siteURL,
			Items:   p.items,
		})
	}
}

func (b *Batcher) FlushAll() {
	b.mu.Lock()
	sites := make([]string, 0, len(b.pending))
	for site := range b.pending {
		sites = append(sites, site)
	}
	b.mu.Unlock()

	for _, site := range sites {
		b.flushSite(site)
	}
}
