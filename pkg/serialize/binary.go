package serialize

import (
	"bytes"
	"unicode/utf8"
)

// binarySniffLimit caps how many leading bytes are inspected for binary
// content.
const binarySniffLimit = 512

// isBinaryData checks whether data is likely binary by looking for null
// bytes or a high ratio of non-printable characters in its leading bytes.
func isBinaryData(data []byte) bool {
	sample := data
	if len(sample) > binarySniffLimit {
		sample = sample[:binarySniffLimit]
	}
	if len(sample) == 0 {
		return false // Empty files are considered text.
	}

	if bytes.Contains(sample, []byte{0}) {
		return true
	}

	nonPrintable := 0
	for _, b := range sample {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	// If more than 30% non-printable characters, consider it binary.
	return float64(nonPrintable)/float64(len(sample)) > 0.3
}

// isPrintable checks if a byte represents a printable ASCII character.
// Multi-byte UTF-8 sequences count as printable.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= utf8.RuneSelf
}
