package quiz

import (
	"math/rand"
	"time"
)

// IntSource is the random source used by Generator.
// *rand.Rand satisfies it.
type IntSource interface {
	Intn(n int) int
}

// Generator creates arithmetic problems.
type Generator struct {
	rng IntSource
}

// NewGenerator creates a Generator backed by a time-seeded source.
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewGeneratorWithSource creates a Generator that draws from src.
func NewGeneratorWithSource(src IntSource) *Generator {
	return &Generator{rng: src}
}

// Generate creates one problem for the given mode.
// Both operands are drawn uniformly from [MinOperand, MaxOperand] before the
// operator is chosen. Subtraction swaps operands so the answer is never negative.
func (g *Generator) Generate(mode Mode) Problem {
	first := g.operand()
	second := g.operand()

	op := OpAdd
	switch mode {
	case ModeSubtraction:
		op = OpSub
	case ModeRandom:
		if g.rng.Intn(2) == 1 {
			op = OpSub
		}
	}

	if op == OpSub {
		if first < second {
			first, second = second, first
		}
		return Problem{First: first, Second: second, Operator: OpSub, Answer: first - second}
	}
	return Problem{First: first, Second: second, Operator: OpAdd, Answer: first + second}
}

// GenerateBatch creates count independent problems. Duplicates are allowed.
func (g *Generator) GenerateBatch(mode Mode, count int) []Problem {
	if count < 0 {
		count = 0
	}
	problems := make([]Problem, 0, count)
	for i := 0; i < count; i++ {
		problems = append(problems, g.Generate(mode))
	}
	return problems
}

func (g *Generator) operand() int {
	return MinOperand + g.rng.Intn(MaxOperand-MinOperand+1)
}
