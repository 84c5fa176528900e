package vision

import "strings"

// modifierAliases maps accepted modifier spellings to the AppleScript
// "X down" clause used in a keystroke's "using" list. Grounded on
// desktop_darwin.go's hotkey modifier table, extended with the alias set
// §4.C6 names ({cmd, option, shift, control}).
var modifierAliases = map[string]string{
	"cmd": "command down", "command": "command down",
	"option": "option down", "alt": "option down",
	"shift":   "shift down",
	"control": "control down", "ctrl": "control down",
}

// specialKeycodes maps named special keys to their AppleScript key code,
// for keys that keystroke cannot take literally (§4.C6: "tab, return,
// escape, delete, space, arrows, F1-F12").
var specialKeycodes = map[string]int{
	"tab": 48, "return": 36, "enter": 36, "escape": 53, "esc": 53,
	"delete": 51, "backspace": 51, "space": 49,
	"up": 126, "down": 125, "left": 123, "right": 124,
	"f1": 122, "f2": 120, "f3": 99, "f4": 118, "f5": 96, "f6": 97,
	"f7": 98, "f8": 100, "f9": 101, "f10": 109, "f11": 103, "f12": 111,
}

// parsedCombo is a key-combo request split into its modifiers and its main
// key, ready for AppleScript rendering.
type parsedCombo struct {
	Modifiers []string // "command down", "shift down", ...
	MainKey   string   // lowercased, non-modifier token
	KeyCode   int      // non-zero if MainKey is a special key
}

// parseKeyCombo splits modifiers from the main key. A combo consisting only
// of modifiers is invalid: §9 states the primary key is required and
// modifier-only combos are not supported.
func parseKeyCombo(combo string) (parsedCombo, error) {
	parts := strings.Split(strings.ToLower(combo), "+")
	var mods []string
	main := ""
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if as, ok := modifierAliases[p]; ok {
			mods = append(mods, as)
			continue
		}
		main = p
	}
	if main == "" {
		return parsedCombo{}, errModifierOnly
	}
	code := 0
	if kc, ok := specialKeycodes[main]; ok {
		code = kc
	}
	return parsedCombo{Modifiers: mods, MainKey: main, KeyCode: code}, nil
}

var errModifierOnly = errModifierOnlyError{}

type errModifierOnlyError struct{}

func (errModifierOnlyError) Error() string {
	return "key_combo requires a non-modifier main key; modifier-only combos are not supported"
}
