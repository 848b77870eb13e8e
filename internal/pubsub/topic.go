package pubsub

import "strings"

// Matches reports whether an MQTT-style subscription pattern matches a
// concrete topic.
//
// Wildcards:
//   - `+` matches exactly one topic level
//   - `#` matches all remaining levels (including zero), and is only
//     honoured as the pattern's final token; a pattern with `#` anywhere
//     else never matches
//
// Examples:
//
//	Matches("foo/bar/#", "foo/bar/baz/qux")  => true
//	Matches("foo/bar/#", "foo/bar")          => true
//	Matches("foo/+/baz", "foo/x/baz")        => true
//	Matches("foo/+/baz", "foo/x/y/baz")      => false
//	Matches("foo/+/baz", "foo/baz")          => false
//	Matches("foo/bar",   "foo/bar")          => true
//	Matches("foo/bar",   "foo/bar/baz")      => false
//
// The comparison streams over both strings one token at a time without
// allocating; it is deterministic and has no side effects.
func Matches(pattern, topic string) bool {
	pi, ti := 0, 0
	for pi < len(pattern) && ti < len(topic) {
		pn := strings.IndexByte(pattern[pi:], '/')
		tn := strings.IndexByte(topic[ti:], '/')

		var ptok string
		if pn < 0 {
			ptok = pattern[pi:]
		} else {
			ptok = pattern[pi : pi+pn]
		}
		var ttok string
		if tn < 0 {
			ttok = topic[ti:]
		} else {
			ttok = topic[ti : ti+tn]
		}

		switch {
		case ptok == "#":
			// Multi-level wildcard swallows everything that remains,
			// but only as the pattern's final token.
			return pn < 0
		case ptok == "+":
			// Single-level wildcard: consume one topic level.
		default:
			if ptok != ttok {
				return false
			}
		}

		if pn < 0 {
			pi = len(pattern)
		} else {
			pi += pn + 1
		}
		if tn < 0 {
			ti = len(topic)
		} else {
			ti += tn + 1
		}
	}

	// A trailing `#` also matches zero remaining levels.
	if pi < len(pattern) && pattern[pi:] == "#" {
		return true
	}

	// Otherwise both pattern and topic must be fully consumed.
	return pi == len(pattern) && ti == len(topic)
}
