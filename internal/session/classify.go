package session

import (
	"strings"

	"github.com/coopermor/hive/internal/proto"
)

// Classification is the outcome of the container inference heuristic, with
// the matching rule kept for logging.
type Classification struct {
	ForeignUI bool
	Rule      string
}

// playerContainerAliases are container-id hints that describe the player's
// own inventory surfaces. Anything else that names a container class is a
// foreign UI.
var playerContainerAliases = map[string]struct{}{
	"inventory":            {},
	"hotbar":               {},
	"hotbar_and_inventory": {},
	"offhand":              {},
	"armor":                {},
}

// ClassifyWindow decides whether an inbound slot snapshot belongs to a
// server-generated UI container or to the player's own inventory. Servers
// vary in how explicitly they frame a UI open, so the rules are an ordered
// heuristic, first match wins:
//
//  1. the canonical player inventory size is never foreign
//  2. a container hint naming anything but a player surface is foreign
//  3. a numeric dynamic id only appears on generated containers
//  4. a positive non-inventory slot count catches the common chest sizes
//  5. everything else is assumed to be ordinary inventory traffic
//
// Only consulted while the session is actively awaiting a UI response;
// classifying at arbitrary times would misread ordinary inventory churn.
func ClassifyWindow(windowID proto.WindowID, containerHint string, dynamicHint any, slotCount int) Classification {
	_ = windowID // ids alone carry no signal, servers reuse them freely

	if slotCount == proto.PlayerInventorySize {
		return Classification{ForeignUI: false, Rule: "canonical inventory size"}
	}

	if hint := strings.ToLower(strings.TrimSpace(containerHint)); hint != "" {
		if _, player := playerContainerAliases[hint]; !player {
			return Classification{ForeignUI: true, Rule: "container hint " + hint}
		}
	}

	if isNumeric(dynamicHint) {
		return Classification{ForeignUI: true, Rule: "dynamic container id"}
	}

	if slotCount > 0 {
		return Classification{ForeignUI: true, Rule: "non-inventory slot count"}
	}

	// Ambiguous: fail toward inaction rather than misinterpreting ordinary
	// inventory traffic as a UI.
	return Classification{ForeignUI: false, Rule: "no signal"}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
