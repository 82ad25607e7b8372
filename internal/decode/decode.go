// Package decode extracts raw sender/receiver/date substrings from the
// free-form text of a trade message.
package decode

import (
	"regexp"
	"strings"

	"tradeproof/internal/models"
)

// Label lines are matched case-insensitively against the lowercased body.
// Each label accepts the full word or its single-letter abbreviation, an
// optional colon or dash separator, and captures the rest of the line.
// The receiver pattern tolerates the common i/v transposition.
var (
	senderPattern   = regexp.MustCompile(`(?m)^\s*(?:sender|s)\s*[:\-]?\s*(.*)`)
	receiverPattern = regexp.MustCompile(`(?m)^\s*(?:rece[iv]{2}er|r)\s*[:\-]?\s*(.*)`)
	datePattern     = regexp.MustCompile(`(?m)^\s*(?:date|d)\s*[:\-]?\s*(.*)`)
)

// Fields scans the message body for the three labeled fields. When a label
// appears on several lines the last one wins, so later annotations override
// earlier ones. A field whose label never matches is left nil.
func Fields(text string) models.DecodedFields {
	text = strings.ToLower(text)
	return models.DecodedFields{
		Sender:   lastMatch(senderPattern, text, false),
		Receiver: lastMatch(receiverPattern, text, false),
		RawDate:  lastMatch(datePattern, text, true),
	}
}

func lastMatch(re *regexp.Regexp, text string, isDate bool) *string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	val := matches[len(matches)-1][1]
	val = strings.TrimSpace(val)
	val = strings.Trim(val, "<>")
	val = strings.TrimSpace(val)
	if isDate {
		// Discard a leading weekday or descriptor, e.g. "monday, 1/19/26".
		if i := strings.LastIndex(val, ","); i >= 0 {
			val = strings.TrimSpace(val[i+1:])
		}
	}
	return &val
}
