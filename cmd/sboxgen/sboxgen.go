// Command sboxgen compiles the eight DES S-boxes into XOR/AND networks and emits them as straight-line code for a
// backend.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/codahale/bsdes/circuit"
	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	log := slog.New(slog.Default().Handler())

	backend := flag.String("backend", "auto", "the emission target: auto, go, avx2, or avx512")
	pkg := flag.String("pkg", "main", "the package name of emitted Go code")
	word := flag.String("word", "uint64", "the plane word type of emitted Go code")
	out := flag.String("out", "", "the output file (default stdout)")
	stats := flag.Bool("stats", false, "print per-box gate counts to stderr")
	flag.Parse()

	b, err := circuit.BackendByName(*backend, *pkg, *word)
	if err != nil {
		log.Error("invalid backend", "err", err)
		os.Exit(2)
	}

	nets := circuit.DES()
	log.Info("compiled networks", "backend", b.Name(), "lanes", b.LaneWidth())

	if *stats {
		printStats(os.Stderr, nets[:])
	}

	if err := write(*out, b, nets[:]); err != nil {
		log.Error("failed to emit networks", "out", *out, "err", err)
		os.Exit(1)
	}
	log.Info("emitted networks", "out", *out)
}

func write(path string, b circuit.Backend, nets []*circuit.Network) error {
	if path == "" {
		w := bufio.NewWriter(os.Stdout)
		if err := circuit.Emit(w, b, nets); err != nil {
			return err
		}
		return w.Flush()
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := circuit.Emit(w, b, nets); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printStats(w io.Writer, nets []*circuit.Network) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"S-box", "ANDs (closure)", "ANDs (live)", "XORs"})

	var totalClosure, totalLive, totalXor int
	for i, n := range nets {
		closure, live, xors := n.Stats()
		totalClosure += closure
		totalLive += live
		totalXor += xors
		t.AppendRow(table.Row{fmt.Sprintf("S%d", i+1), closure, live, xors})
	}
	t.AppendFooter(table.Row{"total", totalClosure, totalLive, totalXor})
	t.Render()
}
