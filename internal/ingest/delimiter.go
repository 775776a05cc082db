package ingest

import (
	"bufio"
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

const sniffBytes = 64 * 1024

// sniffDelimiter peeks at the buffered head of the input and returns the most
// likely delimiter, falling back to ','. The reader is not advanced.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(sniffBytes)
	if len(head) == 0 {
		return ','
	}
	return DetectDelimiter(head)
}

// DetectDelimiter guesses the delimiter of a CSV-like sample.
func DetectDelimiter(sample []byte) rune {
	d := detector.New()
	candidates := d.DetectDelimiter(bytes.NewReader(sample), '"')
	if len(candidates) > 0 && len(candidates[0]) > 0 {
		return rune(candidates[0][0])
	}
	return ','
}
