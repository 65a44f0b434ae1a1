package session

import (
	"errors"
	"testing"

	"github.com/coopermor/hive/internal/proto"
)

// applyActions is a reference decoder: it interprets transaction actions
// against in-memory window states the way the server would.
func applyActions(t *testing.T, windows map[proto.WindowID][]proto.Item, actions []proto.TransactionAction) {
	t.Helper()
	for _, a := range actions {
		slots, ok := windows[a.WindowID]
		if !ok {
			t.Fatalf("action addresses unknown window %d", a.WindowID)
		}
		if a.Slot < 0 || a.Slot >= len(slots) {
			t.Fatalf("action addresses slot %d outside window %d", a.Slot, a.WindowID)
		}
		if slots[a.Slot] != a.OldItem {
			t.Fatalf("old item mismatch at window %d slot %d: have %+v, action claims %+v",
				a.WindowID, a.Slot, slots[a.Slot], a.OldItem)
		}
		slots[a.Slot] = a.NewItem
	}
}

func TestRelocationRoundTrip(t *testing.T) {
	item := proto.Item{ItemID: 7, Count: 1}

	container := make([]proto.Item, 27)
	container[5] = item

	player := make([]proto.Item, proto.PlayerInventorySize)
	for i := range player {
		player[i] = proto.Item{ItemID: 100 + i, Count: 1}
	}
	player[3] = proto.EmptyItem

	txn, err := BuildSlotTransaction(12, 5, item, player)
	if err != nil {
		t.Fatalf("BuildSlotTransaction: %v", err)
	}
	if txn.Kind != TransactionRelocation {
		t.Fatalf("expected relocation, got %s", txn.Kind)
	}
	if len(txn.Payload.Actions) != 2 {
		t.Fatalf("relocation must produce exactly two actions, got %d", len(txn.Payload.Actions))
	}

	windows := map[proto.WindowID][]proto.Item{
		12:                    container,
		proto.WindowInventory: player,
	}
	applyActions(t, windows, txn.Payload.Actions)

	if !windows[12][5].Empty() {
		t.Errorf("net effect must empty slot 5 of window 12, got %+v", windows[12][5])
	}
	if windows[proto.WindowInventory][3] != item {
		t.Errorf("net effect must fill player slot 3 with the item, got %+v", windows[proto.WindowInventory][3])
	}
}

func TestAcknowledgmentWhenDestinationFull(t *testing.T) {
	item := proto.Item{ItemID: 9, Count: 3, Metadata: 2}

	full := make([]proto.Item, proto.PlayerInventorySize)
	for i := range full {
		full[i] = proto.Item{ItemID: 1, Count: 64}
	}

	txn, err := BuildSlotTransaction(4, 0, item, full)
	if err != nil {
		t.Fatalf("BuildSlotTransaction: %v", err)
	}
	if txn.Kind != TransactionAcknowledgment {
		t.Fatalf("expected acknowledgment, got %s", txn.Kind)
	}
	if len(txn.Payload.Actions) != 1 {
		t.Fatalf("acknowledgment must be a single action, got %d", len(txn.Payload.Actions))
	}
	a := txn.Payload.Actions[0]
	if a.OldItem != item || a.NewItem != item {
		t.Errorf("acknowledgment must be an identity pair, got old=%+v new=%+v", a.OldItem, a.NewItem)
	}
	if a.WindowID != 4 || a.Slot != 0 {
		t.Errorf("acknowledgment must address the source slot, got window %d slot %d", a.WindowID, a.Slot)
	}
}

func TestAcknowledgmentWhenDestinationUnknown(t *testing.T) {
	txn, err := BuildSlotTransaction(4, 2, proto.Item{ItemID: 5, Count: 1}, nil)
	if err != nil {
		t.Fatalf("BuildSlotTransaction: %v", err)
	}
	if txn.Kind != TransactionAcknowledgment {
		t.Errorf("unknown destination snapshot must fall back to acknowledgment, got %s", txn.Kind)
	}
}

func TestEmptySourceSlotRejected(t *testing.T) {
	// any item id of 0 is vacant regardless of the other fields
	_, err := BuildSlotTransaction(4, 2, proto.Item{ItemID: 0, Count: 5, Metadata: 1}, nil)
	if !errors.Is(err, ErrEmptySourceSlot) {
		t.Fatalf("expected ErrEmptySourceSlot, got %v", err)
	}
}

func TestNegativeSlotIndexRejected(t *testing.T) {
	if _, err := BuildSlotTransaction(4, -1, proto.Item{ItemID: 5, Count: 1}, nil); err == nil {
		t.Fatal("negative slot index must be rejected")
	}
}
