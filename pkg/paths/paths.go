package paths

import (
	"strings"
)

const volumeSeparator = ":"

// NormalizeVolume trims whitespace, path separators and the drive separator from
// a drive prefix, so "E", "E:" and "E:\" all become "E".
func NormalizeVolume(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	prefix = strings.TrimRight(prefix, `\/`)
	return strings.TrimSuffix(prefix, volumeSeparator)
}

// OnVolume reports whether savePath lives on the drive named by prefix, i.e.
// savePath begins with prefix immediately followed by the drive separator.
// Drive letters compare case-insensitively. This is a volume match only and
// never matches on arbitrary leading path components.
func OnVolume(savePath string, prefix string) bool {
	volume := NormalizeVolume(prefix)
	if volume == "" {
		return false
	}

	head := volume + volumeSeparator
	if len(savePath) < len(head) {
		return false
	}

	return strings.EqualFold(savePath[:len(head)], head)
}
