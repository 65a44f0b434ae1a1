package session

import (
	"errors"
	"fmt"

	"github.com/coopermor/hive/internal/proto"
)

// TransactionKind distinguishes the two outbound interaction forms.
type TransactionKind string

const (
	// TransactionRelocation moves the item out of the container into the
	// first empty player inventory slot.
	TransactionRelocation TransactionKind = "relocation"
	// TransactionAcknowledgment is an old-item/new-item identity pair that
	// signals the interaction without claiming a destination. Used when the
	// player inventory is unknown, stale or full.
	TransactionAcknowledgment TransactionKind = "acknowledgment"
)

var ErrEmptySourceSlot = errors.New("source slot is empty")

// Transaction is a built slot interaction, ready to send.
type Transaction struct {
	Kind    TransactionKind
	Payload proto.InventoryTransaction
}

// BuildSlotTransaction builds the outbound message for "interact with
// slotIndex of windowID". destination is the last known player inventory
// snapshot; it may be nil. Empty source slots are rejected before building,
// no transaction is ever sent for a vacant slot.
func BuildSlotTransaction(windowID proto.WindowID, slotIndex int, item proto.Item, destination []proto.Item) (Transaction, error) {
	if slotIndex < 0 {
		return Transaction{}, fmt.Errorf("slot index %d out of range", slotIndex)
	}
	if item.Empty() {
		return Transaction{}, fmt.Errorf("%w: window %s slot %d", ErrEmptySourceSlot, windowID, slotIndex)
	}

	if dest, ok := firstEmptySlot(destination); ok {
		return Transaction{
			Kind: TransactionRelocation,
			Payload: proto.InventoryTransaction{
				Actions: []proto.TransactionAction{
					{
						WindowID: windowID,
						Slot:     slotIndex,
						OldItem:  item,
						NewItem:  proto.EmptyItem,
					},
					{
						WindowID: proto.WindowInventory,
						Slot:     dest,
						OldItem:  proto.EmptyItem,
						NewItem:  item,
					},
				},
			},
		}, nil
	}

	return Transaction{
		Kind: TransactionAcknowledgment,
		Payload: proto.InventoryTransaction{
			Actions: []proto.TransactionAction{
				{
					WindowID: windowID,
					Slot:     slotIndex,
					OldItem:  item,
					NewItem:  item,
				},
			},
		},
	}, nil
}

func firstEmptySlot(items []proto.Item) (int, bool) {
	for i, it := range items {
		if it.Empty() {
			return i, true
		}
	}
	return 0, false
}
