package session

import "github.com/coopermor/hive/internal/proto"

// Window is the session's view of one open server-driven container. Content
// may arrive as a full snapshot, as incremental single-slot updates, or both.
type Window struct {
	ID      proto.WindowID
	Foreign bool
	Items   []proto.Item

	// ContentReceived gates slot interaction: no transaction is built until
	// at least one snapshot landed.
	ContentReceived bool

	// dumpedOnce de-duplicates the one-time content log line.
	dumpedOnce bool
}

func newWindow(id proto.WindowID, foreign bool) *Window {
	return &Window{ID: id, Foreign: foreign}
}

// ApplyContent replaces the whole slot array. Delivering the same snapshot
// twice yields the same items as delivering it once.
func (w *Window) ApplyContent(items []proto.Item) {
	w.Items = make([]proto.Item, len(items))
	copy(w.Items, items)
	w.ContentReceived = true
}

// ApplySlot applies an incremental update, growing the array when the
// update outruns the last snapshot.
func (w *Window) ApplySlot(slot int, item proto.Item) {
	if slot < 0 {
		return
	}
	for len(w.Items) <= slot {
		w.Items = append(w.Items, proto.EmptyItem)
	}
	w.Items[slot] = item
}

// ItemAt returns the item at slot, or the empty sentinel when the slot is
// outside the known array.
func (w *Window) ItemAt(slot int) proto.Item {
	if slot < 0 || slot >= len(w.Items) {
		return proto.EmptyItem
	}
	return w.Items[slot]
}

// SlotPopulated reports whether slot holds a real item.
func (w *Window) SlotPopulated(slot int) bool {
	return !w.ItemAt(slot).Empty()
}
