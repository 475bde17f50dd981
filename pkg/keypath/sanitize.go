// ABOUTME: Field-name normalisation applied before key lookup
// ABOUTME: Strips bytes outside printable ASCII to tolerate encoding noise

package keypath

import "github.com/nainya/recquery/pkg/value"

// Sanitize removes every byte outside printable ASCII (0x20-0x7E) from key.
func Sanitize(key string) string {
	clean := true
	for i := 0; i < len(key); i++ {
		if !printable(key[i]) {
			clean = false
			break
		}
	}
	if clean {
		return key
	}

	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		if printable(key[i]) {
			out = append(out, key[i])
		}
	}
	return string(out)
}

func printable(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}

// normalize returns m with sanitized keys. The original mapping is returned
// untouched when every key is already clean. When two keys sanitize to the
// same string the later one wins.
func normalize(m *value.Mapping) *value.Mapping {
	dirty := false
	m.Range(func(k string, _ value.Value) bool {
		if Sanitize(k) != k {
			dirty = true
			return false
		}
		return true
	})
	if !dirty {
		return m
	}

	out := value.NewMapping(m.Len())
	m.Range(func(k string, v value.Value) bool {
		out.Set(Sanitize(k), v)
		return true
	})
	return out
}
