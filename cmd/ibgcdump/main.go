// Command ibgcdump inspects ibgc heap snapshots and replays scenario
// scripts against a fresh heap, for debugging the collector without
// writing a Go program.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"
	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-tty"
	"github.com/sigurn/crc16"
	"github.com/tinygo-org/ibgc"
	"github.com/tinygo-org/ibgc/internal/archive"
	"github.com/tinygo-org/ibgc/internal/scenario"
	"github.com/tinygo-org/ibgc/internal/snapshot"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "run a YAML scenario file and print the resulting heap map")
		snapshotOut  = flag.String("snapshot", "", "after running, save the heap to this Intel HEX path")
		bundlePath   = flag.String("bundle", "", "bundle every snapshot command's output from a -repl session into this ar archive")
		verify       = flag.String("verify", "", "print the CRC16 checksum of a saved snapshot instead of running anything")
		repl         = flag.Bool("repl", false, "enter a one-command-per-line shell instead of running -scenario once")
		step         = flag.Bool("step", false, "in -repl mode, wait for a keypress before executing each line")
	)
	flag.Parse()

	if *verify != "" {
		if err := runVerify(*verify); err != nil {
			fmt.Fprintln(os.Stderr, "ibgcdump:", err)
			os.Exit(1)
		}
		return
	}

	if *repl {
		if err := runREPL(*step, *bundlePath); err != nil {
			fmt.Fprintln(os.Stderr, "ibgcdump:", err)
			os.Exit(1)
		}
		return
	}

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "ibgcdump: one of -scenario, -repl, or -verify is required")
		os.Exit(2)
	}
	h, err := runScenarioFile(*scenarioPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ibgcdump:", err)
		os.Exit(1)
	}
	printHeapMap(colorable.NewColorable(os.Stdout), h)
	fmt.Println(h.Stats())

	if *snapshotOut != "" {
		if err := snapshot.Save(*snapshotOut, heapBytes(h)); err != nil {
			fmt.Fprintln(os.Stderr, "ibgcdump:", err)
			os.Exit(1)
		}
	}
}

func runVerify(path string) error {
	mem, err := snapshot.Load(path, ibgc.DefaultMemSize)
	if err != nil {
		return err
	}
	table := crc16.MakeTable(crc16.CRC16_XMODEM)
	sum := crc16.Checksum(mem, table)
	fmt.Printf("%s: crc16=%04x (%d bytes)\n", path, sum, len(mem))
	return nil
}

func runScenarioFile(path string) (*ibgc.Heap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := scenario.Parse(data)
	if err != nil {
		return nil, err
	}
	res, err := scenario.Run(s)
	if err != nil {
		return nil, err
	}
	return res.Heap, nil
}

// printHeapMap renders one glyph per cell, the nearest equivalent for a
// cell-based heap of TinyGo's own per-block dumpHeap debug aid, using the
// glyphs chosen by glyphFor. First cells of objects get no glyph of their
// own.
func printHeapMap(w io.Writer, h *ibgc.Heap) {
	fmt.Fprintln(w, "heap:")
	col := 0
	for p := h.AllocBase(); p < h.AllocTop(); p += ibgc.CellSize {
		fmt.Fprint(w, glyphFor(h, p))
		col++
		if col == 64 {
			fmt.Fprintln(w)
			col = 0
		}
	}
	if col != 0 {
		fmt.Fprintln(w)
	}
}

// glyphFor colors each cell by role: a red '#' for a cell whose mark bit
// matches a nonzero mark sense (while the mark sense is 0, no cell is drawn
// as marked), a yellow '-' for a continuation cell, and a plain dot for
// everything else, matching the single-character-per-block convention of
// TinyGo's own dumpHeap debug aid.
func glyphFor(h *ibgc.Heap, p ibgc.Addr) string {
	tag := h.GetTag(p)
	marked := h.MarkTag() != 0 && tag&ibgc.MarkMask == h.MarkTag()&ibgc.MarkMask
	switch {
	case marked:
		return "\x1b[31m#\x1b[0m"
	case tag&ibgc.ContMask != 0:
		return "\x1b[33m-\x1b[0m"
	default:
		return "·"
	}
}

func heapBytes(h *ibgc.Heap) []byte {
	buf := make([]byte, int(h.AllocTop()))
	for p := ibgc.Addr(0); p < h.AllocTop(); p += ibgc.CellSize {
		v := h.Cell(p)
		buf[p] = byte(v)
		buf[p+1] = byte(v >> 8)
		buf[p+2] = byte(v >> 16)
		buf[p+3] = byte(v >> 24)
	}
	return buf
}

// runREPL drives a fresh heap from interactive, shlex-tokenized command
// lines: "alloc <label> <cells>", "wire <to> <from>", "trace <root>",
// "reclaim", "flip", "stats", "map", "snapshot <path>", "quit".
func runREPL(stepMode bool, bundlePath string) error {
	h := ibgc.NewDefault()
	labels := map[string]ibgc.Addr{}
	var bundled []archive.Entry

	var waiter *tty.TTY
	if stepMode {
		t, err := tty.Open()
		if err != nil {
			return fmt.Errorf("repl: open tty for -step: %w", err)
		}
		defer t.Close()
		waiter = t
	}

	scan := bufio.NewScanner(os.Stdin)
	fmt.Print("ibgc> ")
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line != "" {
			if waiter != nil {
				fmt.Println("(press any key to run this line)")
				if _, err := waiter.ReadRune(); err != nil {
					return fmt.Errorf("repl: step wait: %w", err)
				}
			}
			if err := runREPLLine(h, labels, line, &bundled); err != nil {
				if err == errQuit {
					break
				}
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}
		fmt.Print("ibgc> ")
	}
	fmt.Println()

	if bundlePath != "" && len(bundled) > 0 {
		f, err := os.Create(bundlePath)
		if err != nil {
			return fmt.Errorf("repl: create bundle: %w", err)
		}
		defer f.Close()
		if err := archive.Bundle(f, bundled); err != nil {
			return fmt.Errorf("repl: bundle: %w", err)
		}
	}
	return scan.Err()
}

var errQuit = errors.New("quit")

func runREPLLine(h *ibgc.Heap, labels map[string]ibgc.Addr, line string, bundled *[]archive.Entry) error {
	fields, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("tokenize %q: %w", line, err)
	}
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "quit", "exit":
		return errQuit
	case "stats":
		fmt.Println(h.Stats())
	case "map":
		printHeapMap(colorable.NewColorable(os.Stdout), h)
	case "reclaim":
		h.Reclaim()
	case "flip":
		h.FlipMarkTag()
	case "snapshot":
		if len(fields) != 2 {
			return fmt.Errorf("usage: snapshot <path>")
		}
		data := heapBytes(h)
		if err := snapshot.Save(fields[1], data); err != nil {
			return err
		}
		*bundled = append(*bundled, archive.Entry{Name: fields[1], Data: data})
	case "alloc":
		if len(fields) != 3 {
			return fmt.Errorf("usage: alloc <label> <cells>")
		}
		var cells uint16
		if _, err := fmt.Sscanf(fields[2], "%d", &cells); err != nil {
			return fmt.Errorf("bad cell count %q: %w", fields[2], err)
		}
		addr := h.Alloc(cells, 0)
		if addr == ibgc.AddrNone {
			return fmt.Errorf("alloc: out of memory")
		}
		labels[fields[1]] = addr
		fmt.Printf("%s = %#04x\n", fields[1], uint16(addr))
	case "wire":
		if len(fields) != 3 {
			return fmt.Errorf("usage: wire <to> <from>")
		}
		to, ok := labels[fields[1]]
		if !ok {
			return fmt.Errorf("unknown label %q", fields[1])
		}
		from, ok := labels[fields[2]]
		if !ok {
			return fmt.Errorf("unknown label %q", fields[2])
		}
		h.SetCell(to, ibgc.Cell(from))
		h.SetPointerBit(to)
	case "trace":
		if len(fields) != 2 {
			return fmt.Errorf("usage: trace <root>")
		}
		root, ok := labels[fields[1]]
		if !ok {
			return fmt.Errorf("unknown label %q", fields[1])
		}
		h.Trace(root)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}
