// Package cli is an interactive console for trying the composer: each line
// is replayed as key presses and the resulting view is printed.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/osku/freeshiamy/internal/logger"
	"github.com/osku/freeshiamy/pkg/compose"
	"github.com/osku/freeshiamy/pkg/config"
	"github.com/osku/freeshiamy/pkg/dictionary"
)

var (
	exactStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	prefixStyle = lipgloss.NewStyle().Faint(true)
	commitStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	hintStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("180"))
)

// InputHandler runs one composer session on stdin.
type InputHandler struct {
	loader   *dictionary.Loader
	config   *config.Config
	editor   *compose.Recorder
	composer *compose.Composer
	out      *log.Logger
}

// NewInputHandler creates a handler printing to w. Table loads that finish
// later are announced on w; the next typed line picks them up.
func NewInputHandler(loader *dictionary.Loader, cfg *config.Config, w io.Writer) *InputHandler {
	editor := &compose.Recorder{}
	h := &InputHandler{
		loader: loader,
		config: cfg,
		editor: editor,
		composer: compose.New(loader, editor,
			compose.WithShortestCodeHint(cfg.Hint.ShowShortestCode),
			compose.WithLogger(logger.New("compose")),
		),
		out: logger.NewWithConfig(w, "", log.InfoLevel, false, false, log.TextFormatter),
	}
	loader.OnLoaded(h.announceLoad)
	return h
}

// announceLoad runs on the loading goroutine.
func (h *InputHandler) announceLoad() {
	stats := h.loader.Stats()
	h.out.Print("dictionary updated",
		"codes", stats.CodeEntries,
		"spells", stats.SpellEntries,
		"loading", stats.IsLoading)
	for table, err := range stats.Errors {
		h.out.Error("load failed", "table", table, "err", err)
	}
}

// Start reads key lines from stdin until it is closed.
func (h *InputHandler) Start() error {
	return h.Run(os.Stdin)
}

// Run reads key lines from r. The buffer carries over between lines, so a
// code can be typed over several lines. ":stats" prints dictionary stats.
func (h *InputHandler) Run(r io.Reader) error {
	h.out.Print("FreeShiamy CLI")
	h.out.Print("type keys and press Enter, <sp> <bs> <ret> <sel:N> for special keys (Ctrl+D to exit):")

	scanner := bufio.NewScanner(r)
	for {
		h.out.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		if line == ":stats" {
			h.printStats()
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleInput(line string) {
	events, err := ParseKeys(line)
	if err != nil {
		h.out.Errorf("Bad input: %v", err)
		return
	}

	start := time.Now()
	// the dictionary may have finished loading since the last line
	h.composer.Refresh()
	for _, ev := range events {
		h.composer.Handle(ev)
	}
	log.Debugf("Took [ %v ] for %d keys", time.Since(start), len(events))

	for _, op := range h.editor.Drain() {
		switch op.Kind {
		case compose.OpCommit:
			h.out.Printf("commit %s", commitStyle.Render(op.Text))
		case compose.OpDelete:
			h.out.Print("delete")
		case compose.OpAction:
			h.out.Print("action")
		}
	}
	h.printView()
}

func (h *InputHandler) printView() {
	v := h.composer.View()
	if v.HintText != "" {
		h.out.Print(hintStyle.Render(v.HintText))
	}
	if v.RawText == "" {
		return
	}

	state := ""
	if s := h.composer.State(); s != compose.StateNone {
		state = " [" + s.String() + "]"
	}
	if len(v.Candidates) == 0 {
		h.out.Printf("%s%s: no candidates", v.RawText, state)
		return
	}

	more := len(v.Candidates) - h.config.Candidates.MoreLimit
	shown := v.Candidates[:min(len(v.Candidates), h.config.Candidates.InlineLimit)]
	parts := make([]string, len(shown))
	for i, c := range shown {
		if c.IsExact {
			parts[i] = fmt.Sprintf("%d.%s", i, exactStyle.Render(c.Value))
		} else {
			parts[i] = prefixStyle.Render(c.Value + "(" + c.Code + ")")
		}
	}
	line := fmt.Sprintf("%s%s: %s", v.RawText, state, strings.Join(parts, " "))
	if rest := len(v.Candidates) - len(shown); rest > 0 {
		line += fmt.Sprintf(" +%d", rest)
		if more > 0 {
			line += fmt.Sprintf(" (%d hidden)", more)
		}
	}
	h.out.Print(line)
}

func (h *InputHandler) printStats() {
	stats := h.loader.Stats()
	h.out.Print("dictionary",
		"codes", stats.CodeEntries,
		"spells", stats.SpellEntries,
		"loading", stats.IsLoading,
		"codeLoad", stats.CodeLoadTime,
		"spellLoad", stats.SpellLoadTime)
	for table, err := range stats.Errors {
		h.out.Error("load failed", "table", table, "err", err)
	}
}
