package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/markphelps/optional"
	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim"
)

// Prompter asks for simulation parameters one line at a time.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask collects the five simulation parameters. Each question offers the
// value from base as its default.
func (p *Prompter) Ask(base sim.Config) (sim.Config, error) {
	cfg := base
	questions := []struct {
		text    string
		field   *int64
		minimum int64
	}{
		{"Memory capacity in KB (at least 400)", &cfg.MemoryCapacity, sim.MinMemoryCapacity},
		{"CPU time slice in ms", &cfg.CPUQuantum, sim.MinCPUQuantum},
		{"Average I/O operation duration in ms", &cfg.AvgIODuration, 0},
		{"Simulation length in ms", &cfg.SimulationLength, sim.MinSimulationLength},
		{"Average time between process arrivals in ms", &cfg.AvgArrivalInterval, 1},
	}

	for _, q := range questions {
		v, err := p.askInt64(q.text, *q.field, q.minimum)
		if err != nil {
			return base, err
		}
		*q.field = v
	}
	return cfg, nil
}

// askInt64 repeats the question until the answer is at least minimum.
// An answer that is not a number means def.
func (p *Prompter) askInt64(text string, def, minimum int64) (int64, error) {
	for {
		fmt.Fprintf(p.out, "%s [%d]: ", text, def)
		answer, err := p.readInt64()
		if err != nil {
			return 0, err
		}
		if !answer.Present() {
			logrus.Debugf("no number given, using %d", def)
		}

		v := answer.OrElse(def)
		if v >= minimum {
			return v, nil
		}
		fmt.Fprintf(p.out, "The value must be at least %d.\n", minimum)
	}
}

// readInt64 reads one line. The result is empty when the line is not an integer.
func (p *Prompter) readInt64() (optional.Int64, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return optional.Int64{}, err
		}
		return optional.Int64{}, io.ErrUnexpectedEOF
	}
	v, err := strconv.ParseInt(strings.TrimSpace(p.in.Text()), 10, 64)
	if err != nil {
		return optional.Int64{}, nil
	}
	return optional.NewInt64(v), nil
}
