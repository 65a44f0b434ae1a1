package proto

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WindowID is the canonical integer form of a window identifier. Servers
// address conventional containers with small non-negative integers and
// special virtual containers with reserved negative sentinels, but the wire
// layer may deliver any of them as an integer, a float, a numeric string or
// a named string. Everything is normalized to this type at ingestion and
// never compared in raw form.
type WindowID int

const (
	WindowNone WindowID = -1

	WindowCraftingAddIngredient    WindowID = -2
	WindowCraftingRemoveIngredient WindowID = -3
	WindowCraftingResult           WindowID = -4
	WindowCraftingUseIngredient    WindowID = -5

	WindowAnvilInput    WindowID = -10
	WindowAnvilMaterial WindowID = -11
	WindowAnvilResult   WindowID = -12
	WindowAnvilOutput   WindowID = -13

	WindowEnchantInput    WindowID = -15
	WindowEnchantMaterial WindowID = -16
	WindowEnchantOutput   WindowID = -17

	WindowTradingInput1    WindowID = -20
	WindowTradingInput2    WindowID = -21
	WindowTradingUseInputs WindowID = -22
	WindowTradingOutput    WindowID = -23

	WindowBeacon WindowID = -24

	WindowDropContents WindowID = -100

	WindowInventory WindowID = 0
	WindowOffhand   WindowID = 119
	WindowArmor     WindowID = 120
)

var namedWindows = map[string]WindowID{
	"none":                       WindowNone,
	"crafting_add_ingredient":    WindowCraftingAddIngredient,
	"crafting_remove_ingredient": WindowCraftingRemoveIngredient,
	"crafting_result":            WindowCraftingResult,
	"crafting_use_ingredient":    WindowCraftingUseIngredient,
	"anvil_input":                WindowAnvilInput,
	"anvil_material":             WindowAnvilMaterial,
	"anvil_result":               WindowAnvilResult,
	"anvil_output":               WindowAnvilOutput,
	"enchant_input":              WindowEnchantInput,
	"enchant_material":           WindowEnchantMaterial,
	"enchant_output":             WindowEnchantOutput,
	"trading_input_1":            WindowTradingInput1,
	"trading_input_2":            WindowTradingInput2,
	"trading_use_inputs":         WindowTradingUseInputs,
	"trading_output":             WindowTradingOutput,
	"beacon":                     WindowBeacon,
	"drop_contents":              WindowDropContents,
	"inventory":                  WindowInventory,
	"offhand":                    WindowOffhand,
	"armor":                      WindowArmor,
}

// NormalizeWindowID converts any wire form of a window id into the canonical
// integer type. Accepted forms: Go integer types, float64 (JSON numbers,
// including big-integer values), numeric strings and the named sentinels
// above.
func NormalizeWindowID(raw any) (WindowID, error) {
	switch v := raw.(type) {
	case WindowID:
		return v, nil
	case int:
		return WindowID(v), nil
	case int8:
		return WindowID(v), nil
	case int16:
		return WindowID(v), nil
	case int32:
		return WindowID(v), nil
	case int64:
		return WindowID(v), nil
	case uint8:
		return WindowID(v), nil
	case uint16:
		return WindowID(v), nil
	case uint32:
		return WindowID(v), nil
	case float64:
		if math.Trunc(v) != v {
			return WindowNone, fmt.Errorf("window id %v is not an integer", v)
		}
		return WindowID(int(v)), nil
	case float32:
		return NormalizeWindowID(float64(v))
	case string:
		name := strings.ToLower(strings.TrimSpace(v))
		if id, ok := namedWindows[name]; ok {
			return id, nil
		}
		n, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return WindowNone, fmt.Errorf("unknown window id %q", v)
		}
		return WindowID(n), nil
	case nil:
		return WindowNone, fmt.Errorf("window id is missing")
	default:
		return WindowNone, fmt.Errorf("unsupported window id type %T", raw)
	}
}

func (w WindowID) String() string {
	for name, id := range namedWindows {
		if id == w && id < 0 {
			return name
		}
	}
	return strconv.Itoa(int(w))
}
