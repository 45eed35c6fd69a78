package fasta

// Package fasta contains minimal helpers to parse FASTA formatted data used
// by the project. It intentionally keeps parsing simple and conservative:
// no alphabet validation is done here.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrNotText is returned by DecodeText when the input is not valid UTF-8.
var ErrNotText = errors.New("input is not valid UTF-8 text")

// Record represents a single named sequence. ID is the first token of the
// header; the description is not kept.
type Record struct {
	ID       string `json:"id"`
	Sequence string `json:"sequence"`
}

// Parse reads FASTA records from r.
// Lines beginning with '>' denote headers; sequence lines are concatenated.
// Text before the first header is ignored, so non-FASTA input yields no
// records. The only errors returned come from reading r.
func Parse(r io.Reader) ([]Record, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var records []Record
	var current *Record
	var seq strings.Builder
	flush := func() {
		if current != nil {
			current.Sequence = seq.String()
			records = append(records, *current)
		}
		seq.Reset()
	}

	for {
		// ReadString grows its result as needed, so a single unwrapped
		// chromosome-sized line is read in full.
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			switch {
			case strings.HasPrefix(line, ">"):
				flush()
				current = &Record{ID: headerID(line[1:])}
			case current != nil:
				seq.WriteString(strings.ReplaceAll(strings.TrimSpace(line), " ", ""))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			flush()
			return records, fmt.Errorf("read fasta: %w", err)
		}
	}
	flush()
	return records, nil
}

// ParseString parses an in-memory FASTA document. It accepts any string.
func ParseString(text string) []Record {
	// a strings.Reader never returns an error other than io.EOF
	recs, _ := Parse(strings.NewReader(text))
	return recs
}

// headerID returns the first whitespace-delimited token of a header line
// (without the leading '>').
func headerID(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Write renders recs as FASTA, wrapping sequence lines at width characters.
// A width <= 0 writes each sequence on a single line.
func Write(w io.Writer, recs []Record, width int) error {
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		if _, err := fmt.Fprintf(bw, ">%s\n", rec.ID); err != nil {
			return err
		}
		seq := rec.Sequence
		for len(seq) > 0 {
			n := width
			if n <= 0 || n > len(seq) {
				n = len(seq)
			}
			bw.WriteString(seq[:n])
			bw.WriteByte('\n')
			seq = seq[n:]
		}
	}
	return bw.Flush()
}

// DecodeText turns uploaded bytes into text. A leading UTF-8 byte order mark
// is dropped; anything that is not valid UTF-8 is rejected with ErrNotText.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}
