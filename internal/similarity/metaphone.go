package similarity

import "strings"

// PhoneticCode derives a compact phonetic key for word. Consonants are
// folded into sound classes (b/f/p/v all become "1", c/g/j/k/q/s/x/z "2",
// and so on), vowels after the first character are dropped and consecutive
// duplicates collapse into one. Words that sound alike under a sloppy
// reading yield the same key: "setting" and "settings" both encode to
// "2352".
//
// The empty string encodes to "". Digits and characters without a sound
// class pass through unchanged.
func PhoneticCode(word string) string {
	if word == "" {
		return ""
	}

	lower := strings.ToLower(word)
	mapped := make([]rune, 0, len(lower))
	for _, r := range lower {
		switch r {
		case 'b', 'f', 'p', 'v':
			mapped = append(mapped, '1')
		case 'c', 'g', 'j', 'k', 'q', 's', 'x', 'z':
			mapped = append(mapped, '2')
		case 'd', 't':
			mapped = append(mapped, '3')
		case 'l':
			mapped = append(mapped, '4')
		case 'm', 'n':
			mapped = append(mapped, '5')
		case 'r':
			mapped = append(mapped, '6')
		default:
			mapped = append(mapped, r)
		}
	}

	// Keep the leading character as-is, drop vowels from the rest.
	if len(mapped) > 1 {
		kept := mapped[:1]
		for _, r := range mapped[1:] {
			switch r {
			case 'a', 'e', 'i', 'o', 'u', 'y':
				continue
			}
			kept = append(kept, r)
		}
		mapped = kept
	}

	// Collapse runs of the same character.
	out := make([]rune, 0, len(mapped))
	for _, r := range mapped {
		if len(out) == 0 || out[len(out)-1] != r {
			out = append(out, r)
		}
	}
	return string(out)
}
