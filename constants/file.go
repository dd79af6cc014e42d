package constants

import "strings"

// AllowedExtensions holds the default file extensions picked up by directory ingest.
var AllowedExtensions = map[string]struct{}{
	"txt": {},
	"eml": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Currency is the single currency amounts are reported in.
const Currency = "USD"
