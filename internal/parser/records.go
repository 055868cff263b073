package parser

import (
	"strconv"
	"strings"
)

type scanState int

const (
	outside scanState = iota
	inRecord
)

// ParseRecords scans an extracted table body line by line and returns one
// Record per `{ ... }` block. Lines outside a block are ignored, as are
// assignments whose key is not a string index. Empty blocks are dropped.
func ParseRecords(section string) []Record {
	var records []Record
	var current Record
	state := outside

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch line {
		case "{":
			state = inRecord
			current = make(Record)
			continue
		case "}", "},":
			if state == inRecord && len(current) > 0 {
				records = append(records, current)
			}
			state = outside
			continue
		}

		if state != inRecord {
			continue
		}

		keyPart, valuePart, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key, ok := decodeKey(strings.TrimSpace(keyPart))
		if !ok {
			continue
		}

		current[key] = decodeValue(strings.TrimRight(strings.TrimSpace(valuePart), ","))
	}

	return records
}

// decodeKey accepts only the ["name"] index form.
func decodeKey(s string) (string, bool) {
	if !strings.HasPrefix(s, `["`) || !strings.HasSuffix(s, `"]`) {
		return "", false
	}
	if len(s) < 4 {
		// `["]` overlaps both affixes.
		return "", true
	}
	return s[2 : len(s)-2], true
}

func decodeValue(s string) Value {
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if len(s) < 2 {
			return TextValue("")
		}
		return TextValue(s[1 : len(s)-1])
	}

	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return IntValue(n)
	}
	return TextValue(s)
}
