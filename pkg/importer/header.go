package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	attMetadataPrefix = "$VISION"
	attCommentPrefix  = "*"
	attFieldsPrefix   = "$"
	attDelimiter      = ';'
)

// ReadATTHeader consumes metadata and comment lines from r and returns the
// field names from the first field-list line. r is left positioned at the
// first data line.
func ReadATTHeader(r *bufio.Reader) ([]string, error) {
	fields, _, err := readATTHeader(r)
	return fields, err
}

// ReadCSVHeader reads the first line of r and splits it on delim.
func ReadCSVHeader(r *bufio.Reader, delim rune) ([]string, error) {
	fields, _, err := readCSVHeader(r, delim)
	return fields, err
}

func readATTHeader(r *bufio.Reader) ([]string, int, error) {
	lines := 0
	for {
		line, err := readLine(r)
		if errors.Is(err, io.EOF) {
			return nil, lines, ErrMissingHeader
		}
		if err != nil {
			return nil, lines, fmt.Errorf("failed to read header: %w", err)
		}
		lines++

		switch {
		case strings.HasPrefix(line, attMetadataPrefix), strings.HasPrefix(line, attCommentPrefix):
			continue
		case strings.HasPrefix(line, attFieldsPrefix):
			i := strings.IndexByte(line, ':')
			if i < 0 {
				return nil, lines, fmt.Errorf("line %d: %w: no ':' in %q", lines, ErrMalformedHeader, strings.TrimSpace(line))
			}
			return strings.Split(strings.TrimSpace(line[i+1:]), string(attDelimiter)), lines, nil
		}
	}
}

func readCSVHeader(r *bufio.Reader, delim rune) ([]string, int, error) {
	line, err := readLine(r)
	if errors.Is(err, io.EOF) {
		return nil, 0, ErrMissingHeader
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	return strings.Split(strings.TrimSpace(line), string(delim)), 1, nil
}

// readLine returns the next line including its terminator. io.EOF is only
// returned when nothing was left to read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		return line, nil
	}
	return line, err
}
