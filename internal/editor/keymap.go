package editor

import (
	"fmt"
	"strings"
)

// KeyCombo is a key press with its modifiers.
type KeyCombo struct {
	Control bool
	Meta    bool
	Alt     bool
	Shift   bool
	Key     string
}

// String renders the combo as Control+Meta+Alt+Shift+<key>, listing only the
// held modifiers, in that order, with the key lower-cased.
func (k KeyCombo) String() string {
	var parts []string
	if k.Control {
		parts = append(parts, "Control")
	}
	if k.Meta {
		parts = append(parts, "Meta")
	}
	if k.Alt {
		parts = append(parts, "Alt")
	}
	if k.Shift {
		parts = append(parts, "Shift")
	}
	return strings.Join(append(parts, strings.ToLower(k.Key)), "+")
}

// ParseKeyCombo reads a "+"-separated combo such as "ctrl+shift+z" or "Meta+p".
// Modifier names are case-insensitive; the last part is the key.
func ParseKeyCombo(s string) (KeyCombo, error) {
	parts := strings.Split(strings.TrimSpace(s), "+")
	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if key == "" {
		return KeyCombo{}, fmt.Errorf("key combo %q has no key", s)
	}

	combo := KeyCombo{Key: key}
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "control", "ctrl":
			combo.Control = true
		case "meta", "cmd", "command", "super":
			combo.Meta = true
		case "alt", "option":
			combo.Alt = true
		case "shift":
			combo.Shift = true
		default:
			return KeyCombo{}, fmt.Errorf("unknown modifier %q in key combo %q", mod, s)
		}
	}
	return combo, nil
}

// Keymap binds key combos, keyed by KeyCombo.String, to commands.
type Keymap map[string]Command

// DefaultKeymap returns the bindings for goos. The primary modifier is Meta on
// darwin and Control elsewhere.
func DefaultKeymap(goos string) Keymap {
	primary := func(key string, shift bool) KeyCombo {
		k := KeyCombo{Key: key, Shift: shift}
		if goos == "darwin" {
			k.Meta = true
		} else {
			k.Control = true
		}
		return k
	}

	m := Keymap{}
	m.Bind(primary("p", false), CommandExport)
	m.Bind(primary("f", false), CommandTogglePreview)
	m.Bind(primary("z", false), CommandUndo)
	m.Bind(primary("y", false), CommandRedo)
	m.Bind(primary("z", true), CommandRedo)
	m.Bind(primary("s", false), CommandSave)
	return m
}

// Bind maps combo to cmd, replacing any earlier binding.
func (m Keymap) Bind(combo KeyCombo, cmd Command) {
	m[combo.String()] = cmd
}

// Lookup returns the command bound to combo.
func (m Keymap) Lookup(combo KeyCombo) (Command, bool) {
	cmd, ok := m[combo.String()]
	return cmd, ok
}
