package utils

import "strings"

// GetTagFold looks a key up in a tag map case-insensitively.
func GetTagFold(tags map[string]string, key string) (string, bool) {
	if v, ok := tags[key]; ok {
		return v, true
	}
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// FirstTagFold returns the value of the first key in keys present in the
// tag map, matching case-insensitively.
func FirstTagFold(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if v, ok := GetTagFold(tags, key); ok {
			return v
		}
	}
	return ""
}
