// Package scenario replays a YAML-scripted sequence of heap operations
// against a fresh ibgc.Heap, for use in tests, fixtures, and the ibgcdump
// CLI's -scenario flag. Each step names one collector operation and its
// arguments; allocated addresses are captured under a label so later
// steps (and the test asserting on the result) can refer back to them.
package scenario

import (
	"fmt"

	"github.com/tinygo-org/ibgc"
	yaml "gopkg.in/yaml.v2"
)

// Step is one line of a scenario: exactly one of the Op-named fields is
// meaningful, selected by Op.
type Step struct {
	Op string `yaml:"op"`

	// alloc
	Label string `yaml:"label,omitempty"`
	Cells uint16 `yaml:"cells,omitempty"`
	Info  bool   `yaml:"info,omitempty"`

	// wire: store a cell value at address To (plus ToOffset cells, for
	// wiring a non-head cell of a multi-cell object) holding a pointer to
	// From.
	To       string `yaml:"to,omitempty"`
	ToOffset uint16 `yaml:"to_offset,omitempty"`
	From     string `yaml:"from,omitempty"`

	// trace
	Root string `yaml:"root,omitempty"`

	// assert_idle_cells: fail the scenario unless the heap's current free
	// cell count equals WantIdleCells.
	WantIdleCells uint32 `yaml:"want_idle_cells,omitempty"`
}

// Scenario is a named sequence of steps, run against a heap of the given
// size (0 means ibgc.DefaultMemSize).
type Scenario struct {
	Name     string `yaml:"name"`
	MemBytes int    `yaml:"mem_bytes,omitempty"`
	Steps    []Step `yaml:"steps"`
}

// Parse decodes a scenario from YAML source.
func Parse(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("scenario: parse: %w", err)
	}
	return s, nil
}

// Result is the outcome of running a Scenario: the heap it ran against,
// plus every labelled address produced along the way.
type Result struct {
	Heap   *ibgc.Heap
	Labels map[string]ibgc.Addr
}

// Run replays every step of s in order against a freshly constructed
// heap. It stops at the first step that fails, returning a Result that
// still reflects every step executed before the failure.
func Run(s Scenario) (Result, error) {
	size := s.MemBytes
	if size == 0 {
		size = ibgc.DefaultMemSize
	}
	res := Result{
		Heap:   ibgc.New(size),
		Labels: map[string]ibgc.Addr{},
	}

	for i, step := range s.Steps {
		if err := runStep(res, step); err != nil {
			return res, fmt.Errorf("scenario %q: step %d (%s): %w", s.Name, i, step.Op, err)
		}
	}
	return res, nil
}

func runStep(res Result, step Step) error {
	h := res.Heap
	switch step.Op {
	case "alloc":
		var tag ibgc.Tag
		if step.Info {
			tag = ibgc.InfoMask
		}
		addr := h.Alloc(step.Cells, tag)
		if addr == ibgc.AddrNone {
			return fmt.Errorf("alloc of %d cells failed", step.Cells)
		}
		if step.Label != "" {
			res.Labels[step.Label] = addr
		}
	case "wire":
		to, ok := res.Labels[step.To]
		if !ok {
			return fmt.Errorf("unknown label %q", step.To)
		}
		to += ibgc.Addr(step.ToOffset) * ibgc.CellSize
		from, ok := res.Labels[step.From]
		if !ok {
			return fmt.Errorf("unknown label %q", step.From)
		}
		h.SetCell(to, ibgc.Cell(from))
		h.SetPointerBit(to)
	case "unwire":
		to, ok := res.Labels[step.To]
		if !ok {
			return fmt.Errorf("unknown label %q", step.To)
		}
		h.ClearPointerBit(to)
	case "trace":
		root, ok := res.Labels[step.Root]
		if !ok {
			return fmt.Errorf("unknown label %q", step.Root)
		}
		h.Trace(root)
	case "reclaim":
		h.Reclaim()
	case "flip":
		h.FlipMarkTag()
	case "assert_idle_cells":
		got := uint32(h.Stats().HeapIdle) / ibgc.CellSize
		if got != step.WantIdleCells {
			return fmt.Errorf("idle cells = %d, want %d", got, step.WantIdleCells)
		}
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}
