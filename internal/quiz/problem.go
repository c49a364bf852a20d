// Package quiz provides the timed arithmetic quiz: problem generation and the
// session state machine that sequences rounds into a finished report.
package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// Operand range constants.
const (
	MinOperand = 10
	MaxOperand = 99
)

// Operator is the arithmetic operator of a problem.
type Operator string

// Operator constants
const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
)

// Mode selects the generation policy for every problem in a session.
type Mode string

// Mode constants
const (
	ModeAddition    Mode = "addition"
	ModeSubtraction Mode = "subtraction"
	ModeRandom      Mode = "random"
)

// ErrUnknownMode is returned by ParseMode for unrecognised mode names.
var ErrUnknownMode = errors.New("unknown operation mode")

// ParseMode converts a mode name into a Mode.
// An empty name selects ModeRandom.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case ModeAddition:
		return ModeAddition, nil
	case ModeSubtraction:
		return ModeSubtraction, nil
	case ModeRandom, "":
		return ModeRandom, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// Problem is a single two-digit arithmetic problem.
// For OpSub, First >= Second always holds.
type Problem struct {
	First    int      `json:"first"`
	Second   int      `json:"second"`
	Operator Operator `json:"operator"`
	Answer   int      `json:"answer"`
}

// String returns the problem text, e.g. "51 + 24".
func (p Problem) String() string {
	return fmt.Sprintf("%d %s %d", p.First, p.Operator, p.Second)
}
