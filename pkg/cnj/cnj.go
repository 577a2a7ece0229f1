// Package cnj validates Brazilian judicial case numbers in the unified
// CNJ numbering format NNNNNNN-DD.AAAA.J.TR.OOOO (Resolução CNJ nº 65).
package cnj

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var pattern = regexp.MustCompile(`^(\d{7})-(\d{2})\.(\d{4})\.(\d)\.(\d{2})\.(\d{4})$`)

// segments maps the J digit to the branch of the judiciary it identifies.
var segments = map[string]string{
	"1": "Supremo Tribunal Federal",
	"2": "Conselho Nacional de Justiça",
	"3": "Superior Tribunal de Justiça",
	"4": "Justiça Federal",
	"5": "Justiça do Trabalho",
	"6": "Justiça Eleitoral",
	"7": "Justiça Militar da União",
	"8": "Justiça dos Estados e do Distrito Federal e Territórios",
	"9": "Justiça Militar Estadual",
}

// Number holds the parsed components of a CNJ case number.
type Number struct {
	Sequential string // NNNNNNN, sequential per origin unit and year
	CheckDigit string // DD
	Year       string // AAAA
	Segment    string // J
	Court      string // TR
	Origin     string // OOOO
}

// Parse splits a case number into its components without validating the
// check digit. Returns an error when the string does not match the format.
func Parse(s string) (*Number, error) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("malformed CNJ number %q", s)
	}
	return &Number{
		Sequential: m[1],
		CheckDigit: m[2],
		Year:       m[3],
		Segment:    m[4],
		Court:      m[5],
		Origin:     m[6],
	}, nil
}

// Validate checks the number's módulo 97 check digit.
func (n *Number) Validate() error {
	if dv := checkDigit(n); n.CheckDigit != dv {
		return fmt.Errorf("check digit %s does not match computed %s", n.CheckDigit, dv)
	}
	return nil
}

// Valid reports whether s is a well-formed CNJ number with a correct
// módulo 97 check digit.
func Valid(s string) bool {
	n, err := Parse(s)
	if err != nil {
		return false
	}
	return n.Validate() == nil
}

// SegmentName returns the judiciary branch for the number's J digit.
func (n *Number) SegmentName() string {
	return segments[n.Segment]
}

// String reassembles the canonical formatted number.
func (n *Number) String() string {
	return fmt.Sprintf("%s-%s.%s.%s.%s.%s",
		n.Sequential, n.CheckDigit, n.Year, n.Segment, n.Court, n.Origin)
}

// checkDigit computes DD = 98 - (OOOO AAAA J TR NNNNNNN mod 97).
// The 18-digit concatenation fits in a uint64.
func checkDigit(n *Number) string {
	concat := n.Origin + n.Year + n.Segment + n.Court + n.Sequential
	v, err := strconv.ParseUint(concat, 10, 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d", 98-v%97)
}
