package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type minimalModel struct {
	player   *streamPlayer
	lastTick time.Time
}

func startMinimalPlayer(filename string, rate int) error {
	fmt.Println("Starting minimal player mode...")

	// Set up clean exit handling
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Print("\nUser interrupted, exiting...\n")
		os.Exit(0)
	}()

	m, err := initialMinimalModel(filename, rate)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithoutRenderer())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running player: %w", err)
	}
	return nil
}

func initialMinimalModel(filename string, rate int) (minimalModel, error) {
	ctx, err := newOtoContext(rate)
	if err != nil {
		return minimalModel{}, err
	}

	sp, err := newStreamPlayer(ctx, filename, rate)
	if err != nil {
		return minimalModel{}, err
	}

	fmt.Printf("\nPlaying: %s\n", filename)
	fmt.Printf("Sample Rate: %d Hz, Frames: %d, Samples: %d\n",
		sp.rate,
		sp.info.Frames,
		sp.info.Samples,
	)
	fmt.Printf("Duration: %s\n", formatDuration(sp.totalLength))
	fmt.Println("\nPress Ctrl+C to quit")

	sp.player.Play()

	return minimalModel{
		player:   sp,
		lastTick: time.Now(),
	}, nil
}

func (m minimalModel) Init() tea.Cmd {
	return tickCmd()
}

func (m minimalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if m.player.finished() {
			fmt.Println("\nPlayback complete")
			return m, tea.Quit
		}
		if time.Since(m.lastTick) >= time.Second {
			fmt.Printf("\rTime: %s / %s",
				formatDuration(m.player.elapsed()),
				formatDuration(m.player.totalLength),
			)
			m.lastTick = time.Now()
		}
		return m, tickCmd()
	}

	return m, nil
}

func (m minimalModel) View() string {
	return ""
}
