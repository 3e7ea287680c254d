package scanner

import (
	"sync"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
)

// progressTracker combines the progress of the sub-scans of an operation and
// publishes it. The published value never decreases.
type progressTracker struct {
	lock     *sync.Mutex
	progress domain.ScanProgress
	last     float64

	total   func(domain.ScanProgress) float64
	event   ports.Event
	bus     ports.EventBus
	onPrgrs func(float64)
}

func newProgressTracker(
	bus ports.EventBus, event ports.Event,
	total func(domain.ScanProgress) float64, onProgress func(float64),
) *progressTracker {
	return &progressTracker{
		lock:    &sync.Mutex{},
		total:   total,
		event:   event,
		bus:     bus,
		onPrgrs: onProgress,
	}
}

func walletProgress(p domain.ScanProgress) float64 {
	return p.Total()
}

func notesProgress(p domain.ScanProgress) float64 {
	return domain.ScanProgress{Addresses: p.Notes, Notes: p.Notes}.Total()
}

func addressesProgress(p domain.ScanProgress) float64 {
	return domain.ScanProgress{Addresses: p.Addresses, Notes: p.Addresses}.Total()
}

func (t *progressTracker) setAddresses(fraction float64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if fraction > t.progress.Addresses {
		t.progress.Addresses = fraction
	}
	t.publish()
}

func (t *progressTracker) setNotes(fraction float64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if fraction > t.progress.Notes {
		t.progress.Notes = fraction
	}
	t.publish()
}

func (t *progressTracker) current() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.last
}

func (t *progressTracker) publish() {
	total := t.total(t.progress)
	if total < t.last {
		total = t.last
	}
	t.last = total

	event := t.event
	event.Topic = ports.TopicBalanceRefreshProgress
	event.Progress = total
	t.bus.Publish(event)

	if t.onPrgrs != nil {
		t.onPrgrs(total)
	}
}
