package proto

// Item is one stack inside a window slot. Slots hold items by value, an
// ItemID of 0 is the empty sentinel regardless of the other fields.
type Item struct {
	ItemID   int   `json:"itemId"`
	Count    int   `json:"count"`
	Metadata int   `json:"metadata"`
	StackID  int64 `json:"stackId,omitempty"`
}

// Empty reports whether the slot holding this item is vacant.
func (i Item) Empty() bool {
	return i.ItemID == 0
}

// EmptyItem is the value written into a slot to vacate it.
var EmptyItem = Item{}

// PlayerInventorySize is the canonical slot count of the player inventory.
// Snapshots of exactly this size are never treated as a foreign UI.
const PlayerInventorySize = 36
