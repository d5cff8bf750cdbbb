// Command miclisten drives core/stream.Processor off a live microphone,
// using the RMS-energy stand-in inferencer, and renders incoming
// cascade.Results in a small terminal UI.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/koscakluka/cascade/core/audio/miniaudio"
	"github.com/koscakluka/cascade/core/interruptions"
	"github.com/koscakluka/cascade/core/stream"
)

// cycleSystemState advances proc's dialogue state idle -> processing ->
// responding -> idle, ignoring a refusal (e.g. while the machine is
// collecting speech) and returning whatever state the processor ends up
// holding.
func cycleSystemState(proc *stream.Processor) func() interruptions.State {
	return func() interruptions.State {
		switch proc.SystemState() {
		case interruptions.StateIdle:
			proc.SetSystemState(interruptions.StateProcessing)
		case interruptions.StateProcessing:
			proc.SetSystemState(interruptions.StateResponding)
		default:
			proc.SetSystemState(interruptions.StateIdle)
		}
		return proc.SystemState()
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "miclisten:", err)
		os.Exit(1)
	}
}

func run() error {
	mic, err := miniaudio.NewMic()
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer mic.Close()

	proc, err := stream.Open(newEnergyInferencer(), stream.DefaultConfig())
	if err != nil {
		return fmt.Errorf("open processor: %w", err)
	}
	defer proc.Close(context.Background())

	pr, pw := io.Pipe()

	if err := mic.Start(func(pcm []byte) {
		if _, err := pw.Write(pcm); err != nil {
			return
		}
	}); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}

	results := make(chan resultMsg, 32)
	go func() {
		defer close(results)
		for res, err := range proc.ProcessStream(pr) {
			results <- resultMsg{result: res, err: err}
		}
	}()

	m := newModel(results, proc.Stats, cycleSystemState(proc))

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	_ = mic.Stop()
	if err := pw.Close(); err != nil {
		log.Printf("miclisten: closing pipe: %v", err)
	}
	return nil
}
