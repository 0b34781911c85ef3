package encounter

import (
	"encoding/json"
	"strings"
)

// ParseTranscript normalizes raw transcript input. Intake accepts either a
// JSON array of entries or a string holding a loosely-quoted (single-quote,
// Python-style) list as produced by the speech pipeline. Anything unparsable
// yields an empty transcript; a bad transcript alone never fails an intake.
func ParseTranscript(raw json.RawMessage) []TranscriptEntry {
	if len(raw) == 0 {
		return []TranscriptEntry{}
	}

	var entries []TranscriptEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		if entries == nil {
			return []TranscriptEntry{}
		}
		return entries
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return []TranscriptEntry{}
	}

	s = strings.ReplaceAll(s, "'", `"`)
	if err := json.Unmarshal([]byte(s), &entries); err != nil || entries == nil {
		return []TranscriptEntry{}
	}
	return entries
}
