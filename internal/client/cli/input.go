package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GetSimpleText prints a prompt to w and reads one trimmed line from sc.
// It returns io.EOF when input is exhausted.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(sc *bufio.Scanner, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(sc.Text()), nil
}

// GetOptionalText is GetSimpleText where an empty answer yields nil.
func GetOptionalText(sc *bufio.Scanner, prompt string, w io.Writer) (*string, error) {
	s, err := GetSimpleText(sc, prompt+" (optional)", w)
	if err != nil || s == "" {
		return nil, err
	}
	return &s, nil
}

// GetAmount reads a float. An empty answer yields nil when optional is set.
func GetAmount(sc *bufio.Scanner, prompt string, w io.Writer, optional bool) (*float64, error) {
	if optional {
		prompt += " (optional)"
	}
	s, err := GetSimpleText(sc, prompt, w)
	if err != nil {
		return nil, err
	}
	if s == "" && optional {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &v, nil
}
