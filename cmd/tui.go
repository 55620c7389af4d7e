package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/braheezy/goeaxa/pkg/eaxa"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ebitengine/oto/v3"
)

// seekStep is how far one seek key press moves playback.
const seekStep = 5 * time.Second

// ==========================================
// =============== Messages =================
// ==========================================
// tickMsg is sent periodically to update the progress bar.
type tickMsg time.Time

// tickCmd is a helper function to create a tickMsg.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// controlsMsg is sent to control various things about the music player.
type controlsMsg int

const (
	start controlsMsg = iota
	stop
)

// sendControlsMsg is a helper function to create a controlsMsg.
func sendControlsMsg(msg controlsMsg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// changeSongMsg is sent to change the stream.
type changeSongMsg int

const (
	next changeSongMsg = iota
	prev
)

// sendChangeSongMsg is a helper function to create a changeSongMsg.
func sendChangeSongMsg(msg changeSongMsg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// ==========================================
// ================ Models ==================
// ==========================================

// model holds the main state of the application.
type model struct {
	// filenames is a list of streams to play.
	filenames []string
	// currentIndex is the index of the current stream playing
	currentIndex int
	// streamPlayer plays the current stream
	streamPlayer *streamPlayer
	// ctx is the Oto context. There can only be one per process.
	ctx *oto.Context
	// rate is the playback sample rate.
	rate int
	// help renders the key bindings.
	help help.Model
	// err is a fatal error that ended the program.
	err error
}

// streamPlayer handles playing one decoded EA-XA stream and showing progress.
type streamPlayer struct {
	// reader serves the decoded samples to the player as PCM.
	reader *eaxa.Reader
	// player is the Oto player, which does the actually playing of sound.
	player *oto.Player
	// info is the probed description of the stream.
	info eaxa.Info
	// rate is the playback sample rate.
	rate int
	// totalLength is the total length of the stream.
	totalLength time.Duration
	// filename is the filename of the stream being played.
	filename string
	// progress is the progress bubble model.
	progress progress.Model
	// paused is whether the stream is paused.
	paused bool
}

// newOtoContext prepares an Oto context for mono 16 bit playback.
func newOtoContext(rate int) (*oto.Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("oto.NewContext failed: %w", err)
	}
	// Wait for the context to be ready
	<-ready
	return ctx, nil
}

// newStreamPlayer decodes filename and creates a player for it.
func newStreamPlayer(ctx *oto.Context, filename string, rate int) (*streamPlayer, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading stream: %w", err)
	}

	info, err := eaxa.Probe(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	samples, err := eaxa.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	prog := progress.New(progress.WithGradient(eaRed, eaOrange))
	prog.ShowPercentage = false
	prog.Width = maxWidth

	reader := eaxa.NewReader(samples)
	return &streamPlayer{
		filename:    filename,
		reader:      reader,
		info:        info,
		rate:        rate,
		progress:    prog,
		player:      ctx.NewPlayer(reader),
		totalLength: sampleDuration(len(samples), rate),
	}, nil
}

// elapsed is the playback position. It runs slightly ahead of the speaker by
// the size of Oto's buffer.
func (p *streamPlayer) elapsed() time.Duration {
	return sampleDuration(p.reader.SamplesPlayed(), p.rate)
}

func (p *streamPlayer) percent() float64 {
	if p.reader.Len() == 0 {
		return 1
	}
	return float64(p.reader.SamplesPlayed()) / float64(p.reader.Len())
}

// seek moves playback by d, clamped to the stream.
func (p *streamPlayer) seek(d time.Duration) error {
	target := min(max(p.elapsed()+d, 0), p.totalLength)
	sample := int64(target.Seconds() * float64(p.rate))
	_, err := p.player.Seek(sample*2, io.SeekStart)
	return err
}

// finished reports whether the stream played to its end.
func (p *streamPlayer) finished() bool {
	return !p.player.IsPlaying() && !p.paused
}

// initialModel creates a new model with the given filenames.
func initialModel(filenames []string, rate int) (*model, error) {
	ctx, err := newOtoContext(rate)
	if err != nil {
		return nil, err
	}

	player, err := newStreamPlayer(ctx, filenames[0], rate)
	if err != nil {
		return nil, err
	}

	return &model{
		filenames:    filenames,
		currentIndex: 0,
		ctx:          ctx,
		rate:         rate,
		help:         help.New(),
		streamPlayer: player,
	}, nil
}

// ==========================================
// ================= Main ===================
// ==========================================
// startTUI is the main entry point for the TUI.
func startTUI(inputFiles []string, rate int) error {
	m, err := initialModel(inputFiles, rate)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	if fm, ok := final.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(sendControlsMsg(start))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	// Handle terminal resizing
	case tea.WindowSizeMsg:
		m.streamPlayer.progress.Width = min(msg.Width-padding*2-4, maxWidth)
		m.help.Width = msg.Width
		return m, nil

	// Handle key presses
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, helpKeys.quit):
			m.streamPlayer.player.Close()
			return m, tea.Quit
		case key.Matches(msg, helpKeys.togglePlay):
			if m.streamPlayer.player.IsPlaying() {
				return m, sendControlsMsg(stop)
			}
			return m, sendControlsMsg(start)
		case key.Matches(msg, helpKeys.seekBack):
			m.seekBy(-seekStep)
			return m, nil
		case key.Matches(msg, helpKeys.seekForward):
			m.seekBy(seekStep)
			return m, nil
		case key.Matches(msg, helpKeys.previousSong):
			return m, sendChangeSongMsg(prev)
		case key.Matches(msg, helpKeys.nextSong):
			return m, sendChangeSongMsg(next)
		}

	// Handle requests to change controls (play, pause, etc.)
	case controlsMsg:
		switch msg {
		case start:
			if !m.streamPlayer.player.IsPlaying() {
				m.streamPlayer.player.Play()
				m.streamPlayer.paused = false
				// Now that we are definitely playing, start the progress bubble
				return m, tickCmd()
			}
		case stop:
			m.streamPlayer.player.Pause()
			m.streamPlayer.paused = true
		}

	// Handle requests to change stream (prev, next, etc.)
	case changeSongMsg:
		step := 1
		if msg == prev {
			step = -1
		}
		if err := m.changeSong(step); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, sendControlsMsg(start)

	// Update the progress. This is called periodically, so also handle streams that are over.
	case tickMsg:
		if m.streamPlayer.finished() {
			return m, sendChangeSongMsg(next)
		}
		if m.streamPlayer.player.IsPlaying() {
			cmd := m.streamPlayer.progress.SetPercent(m.streamPlayer.percent())
			return m, tea.Batch(cmd, tickCmd())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.streamPlayer.progress.Update(msg)
		m.streamPlayer.progress = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *model) seekBy(d time.Duration) {
	if err := m.streamPlayer.seek(d); err != nil {
		logger.Warn("Seek failed", "err", err)
	}
}

// changeSong moves step entries through the filenames list, wrapping around.
func (m *model) changeSong(step int) error {
	m.streamPlayer.player.Close()

	nextIndex := (m.currentIndex + step + len(m.filenames)) % len(m.filenames)
	player, err := newStreamPlayer(m.ctx, m.filenames[nextIndex], m.rate)
	if err != nil {
		return err
	}
	player.progress.Width = m.streamPlayer.progress.Width

	m.streamPlayer = player
	m.currentIndex = nextIndex
	return nil
}

// ==========================================
// ================= View ===================
// ==========================================
// View renders the current state of the application.
func (m model) View() string {
	pad := strings.Repeat(" ", 2)
	p := m.streamPlayer
	status := fmt.Sprintf("%s / %s  (%d frames)",
		formatDuration(p.elapsed()),
		formatDuration(p.totalLength),
		p.info.Frames,
	)
	if p.paused {
		status += "  paused"
	}
	return fmt.Sprintf("\n%s %s (%d/%d)\n\n%s%s\n%s%s\n\n%s%s\n",
		pad, titleStyle.Render(p.filename), m.currentIndex+1, len(m.filenames),
		pad, p.progress.View(),
		pad, status,
		pad, m.help.View(helpKeys),
	)
}
