package main

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ecocycle/internal/errs"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// tokenize splits a command line on whitespace. Double quotes group words.
func tokenize(line string) ([]string, error) {
	var (
		out  []string
		cur  strings.Builder
		inQ  bool
		have bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQ = !inQ
			have = true
		case unicode.IsSpace(r) && !inQ:
			if have {
				out = append(out, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(r)
			have = true
		}
	}
	if inQ {
		return nil, errUnterminatedQuote
	}
	if have {
		out = append(out, cur.String())
	}
	return out, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, errs.New(errs.ErrValidation, "bad id %q", s)
	}
	return id, nil
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errs.New(errs.ErrValidation, "bad price %q", s)
	}
	return v, nil
}

// need checks the argument count and reports the usage line otherwise.
func need(args []string, n int, usage string) error {
	if len(args) < n {
		return errs.New(errs.ErrValidation, "usage: %s", usage)
	}
	return nil
}

// rest joins args[i:] back into free text.
func rest(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}
