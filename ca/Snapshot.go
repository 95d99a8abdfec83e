package ca

import "github.com/epics-go/cachannel/ca/queue"

// PreStateChange implements spec.md §4.6 "pre_state_change": it
// captures the channel's state at a sync-filter transition boundary,
// before the state variable actually changes.
func (c *channelCore) PreStateChange(stateVar string, newValue bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots[stateVar] = make(map[queue.SyncMode]*channelSnapshot)
	snap := c.deepSnapshot()

	if newValue {
		c.snapshots[stateVar][queue.Before] = snap
	} else {
		c.snapshots[stateVar][queue.Last] = snap
	}
}

// PostStateChange implements spec.md §4.6 "post_state_change": it
// records the just-completed transition and queues the snapshot that
// the next write should materialize.
//
// A live reference would be valid for "while" as well, but this
// implementation takes a deep copy at the moment of the call instead,
// so every sync-filter mode is served uniformly by channelSnapshot. A
// subscriber filtered on "while" therefore sees the channel's state
// exactly at the post_state_change call, not its subsequent live
// updates -- documented in DESIGN.md.
func (c *channelCore) PostStateChange(stateVar string, newValue bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshots[stateVar] == nil {
		c.snapshots[stateVar] = make(map[queue.SyncMode]*channelSnapshot)
	}

	snap := c.deepSnapshot()

	if newValue {
		c.snapshots[stateVar][queue.While] = snap
		c.fillAtNextWrite = append(c.fillAtNextWrite, fillEntry{state: stateVar, mode: queue.After})
	} else {
		c.snapshots[stateVar][queue.Unless] = snap
		c.fillAtNextWrite = append(c.fillAtNextWrite, fillEntry{state: stateVar, mode: queue.First})
	}
}
