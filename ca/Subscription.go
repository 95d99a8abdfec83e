package ca

import (
	"github.com/epics-go/cachannel/ca/chantype"
	"github.com/epics-go/cachannel/ca/flags"
	"github.com/epics-go/cachannel/ca/guid"
	"github.com/epics-go/cachannel/ca/internal/metrics"
	"github.com/epics-go/cachannel/ca/queue"
)

// Subscribe implements spec.md §4.5 "subscribe": it registers spec
// against queue q and immediately enqueues one current-state update,
// satisfying invariant 4 ("the first SubscriptionUpdate delivered
// after subscribe has flags == 0 and reflects the channel state at
// subscribe time").
func (c *channelCore) Subscribe(q queue.Queue, spec queue.SubSpec, sub *guid.Guid) error {
	dataType, ok := spec.DataType()
	if !ok {
		return &BadRequest{Reason: "unknown wire type name " + spec.DataTypeName}
	}

	c.mu.Lock()

	key := newSyncKey(spec.Sync)
	byType := c.queues[q]
	if byType == nil {
		byType = make(map[syncKey]map[string]map[queue.SubSpec]struct{})
		c.queues[q] = byType
	}
	bySpec := byType[key]
	if bySpec == nil {
		bySpec = make(map[string]map[queue.SubSpec]struct{})
		byType[key] = bySpec
	}
	specs := bySpec[spec.DataTypeName]
	if specs == nil {
		specs = make(map[queue.SubSpec]struct{})
		bySpec[spec.DataTypeName] = specs
	}
	specs[spec] = struct{}{}

	metadata, values, err := c.cachedRead(&c.state, c.contentCache, spec.DataTypeName, dataType)
	c.mu.Unlock()

	if err != nil {
		return err
	}

	return q.Enqueue(queue.Update{
		Specs:    []queue.SubSpec{spec},
		Metadata: metadata,
		Values:   values,
		Flags:    0,
		Sub:      sub,
	})
}

// Unsubscribe implements spec.md §4.5 "unsubscribe".
func (c *channelCore) Unsubscribe(q queue.Queue, spec queue.SubSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := newSyncKey(spec.Sync)
	bySpec := c.queues[q][key]
	if bySpec == nil {
		return
	}
	if specs := bySpec[spec.DataTypeName]; specs != nil {
		delete(specs, spec)
	}
}

// Publish implements spec.md §4.5 "publish(flags)" and §9's caching
// invariant: within one call, the conversion for a given wire type
// runs at most once per source. It also implements alarm.Target, so
// an Alarm shared with other channels re-triggers this channel's own
// fan-out whenever the alarm changes.
func (c *channelCore) Publish(mask flags.EventMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked(mask)
}

func (c *channelCore) publishLocked(mask flags.EventMask) {
	c.contentCache = make(map[string]cachedContent)
	fanout := 0

	for q, bySync := range c.queues {
		for key, bySpec := range bySync {
			for dataTypeName, specs := range bySpec {
				eligible := c.eligibleSpecs(key, specs)
				if len(eligible) == 0 {
					continue
				}

				dataType, ok := chantype.ByName(dataTypeName)
				if !ok {
					continue
				}

				src, cache := c.publishSource(key)
				if src == nil {
					continue
				}

				metadata, values, err := c.cachedRead(src, cache, dataTypeName, dataType)
				if err != nil {
					continue
				}

				q.Enqueue(queue.Update{
					Specs:    eligible,
					Metadata: metadata,
					Values:   values,
					Flags:    mask,
					Sub:      nil,
				})
				fanout += len(eligible)
			}
		}
	}

	metrics.PublishFanout.Observe(float64(fanout))
}

// eligibleSpecs implements spec.md §4.5's eligibility rule: a spec
// with no sync filter is always eligible; one with a sync filter is
// eligible only while its named state currently holds a snapshot
// under its requested mode.
func (c *channelCore) eligibleSpecs(key syncKey, specs map[queue.SubSpec]struct{}) []queue.SubSpec {
	var out []queue.SubSpec
	for spec := range specs {
		if !key.hasSync {
			out = append(out, spec)
			continue
		}
		if _, ok := c.snapshots[key.state][key.mode]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// publishSource resolves the source a given sync group reads from:
// the live channel when there is no sync filter, or the matching
// snapshot (and its own cache) otherwise.
func (c *channelCore) publishSource(key syncKey) (*state, map[string]cachedContent) {
	if !key.hasSync {
		return &c.state, c.contentCache
	}
	snap, ok := c.snapshots[key.state][key.mode]
	if !ok {
		return nil, nil
	}
	return &snap.state, snap.contentCache
}

// cachedRead computes (metadata, values) for dataType against src,
// reusing cache when a prior call in the same publish cycle already
// computed it (spec.md §4.5 "Caching invariant").
func (c *channelCore) cachedRead(src *state, cache map[string]cachedContent, name string, dataType chantype.Type) (interface{}, interface{}, error) {
	if cached, ok := cache[name]; ok {
		metrics.ConversionCacheHits.WithLabelValues("hit").Inc()
		return cached.metadata, cached.values, nil
	}

	metrics.ConversionCacheHits.WithLabelValues("miss").Inc()
	metadata, values, err := readFrom(src, dataType)
	if err != nil {
		return nil, nil, err
	}
	cache[name] = cachedContent{metadata: metadata, values: values}
	return metadata, values, nil
}
