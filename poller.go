package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RedrawNotifier is told that new data is in the store. It carries no payload;
// the receiver reads the store itself.
type RedrawNotifier interface {
	Redraw()
}

// poller runs the fetch/validate/merge cycle at a fixed interval while the
// application is visible, and empties the store while it is hidden.
type poller struct {
	feed       VehicleFeedSource
	validator  *RecordValidator
	store      *Store
	visibility *Visibility
	notifier   RedrawNotifier
	stats      *FeedStats
	interval   time.Duration
	now        func() time.Time
}

func newPoller(feed VehicleFeedSource, validator *RecordValidator, store *Store, visibility *Visibility, notifier RedrawNotifier, interval time.Duration) *poller {
	return &poller{
		feed:       feed,
		validator:  validator,
		store:      store,
		visibility: visibility,
		notifier:   notifier,
		stats:      &FeedStats{},
		interval:   interval,
		now:        time.Now,
	}
}

func (p *poller) run(ctx context.Context) {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.tick(ctx)
			t.Reset(p.interval)
		}
	}
}

func (p *poller) tick(ctx context.Context) {
	p.stats.tick()
	if !p.visibility.Visible() {
		if n := p.store.Len(); n > 0 {
			log.WithField("vehicles", n).Info("hidden, clearing vehicle store")
		}
		p.store.Clear()
		return
	}

	start := p.now()
	res, err := p.feed.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.stats.failure(start, err)
		log.WithError(err).Warn("poll error, keeping previous vehicles")
		return
	}
	for _, d := range res.Dropped {
		log.WithError(d).Debug("dropped malformed row")
	}

	valid, rejected := p.validator.Filter(res.Records)
	for _, r := range rejected {
		log.WithError(r).Debug("rejected record")
	}
	st := p.store.Merge(valid)
	p.stats.success(p.now(), len(res.Records), len(res.Dropped), len(rejected))

	log.WithFields(log.Fields{
		"fetched":  len(res.Records),
		"dropped":  len(res.Dropped),
		"rejected": len(rejected),
		"created":  st.Created,
		"moved":    st.Moved,
		"vehicles": p.store.Len(),
		"took":     p.now().Sub(start).Round(time.Millisecond),
	}).Info("vehicles updated")

	if p.notifier != nil {
		p.notifier.Redraw()
	}
}
