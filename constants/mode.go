package constants

import "strings"

// Mode selects between the legacy (unscored) and scored extraction paths.
type Mode string

const (
	ModeLegacy Mode = "legacy"
	ModeScored Mode = "scored"
)

// Modes lists the accepted mode flags.
var Modes = []string{string(ModeLegacy), string(ModeScored)}

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLegacy:
		return ModeLegacy, true
	case ModeScored:
		return ModeScored, true
	}
	return "", false
}

func (m Mode) Valid() bool {
	return m == ModeLegacy || m == ModeScored
}
