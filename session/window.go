// Package session manages conversation history under a token budget:
// a sliding window that summarizes older turns, hierarchical
// summarization across turns, sessions, and users, and semantic
// compression of verbose text.
//
// Histories grow without bound; compaction keeps the context the
// model sees manageable while preserving the critical facts.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Turn is a single exchange in a conversation
type Turn struct {
	ID         int       `json:"turn_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	TokenCount int       `json:"token_count"`
}

// SummarizeFunc condenses a turn into one or two sentences. Production
// systems plug in an LLM call; the default truncates.
type SummarizeFunc func(turn Turn) string

// Window keeps recent turns verbatim and folds older turns into a
// rolling summary, so total context stays bounded. Recent is
// detailed, older is compressed. It is safe for concurrent use.
type Window struct {
	mu         sync.Mutex
	windowSize int
	turns      []Turn
	summary    string
	nextID     int
	summarize  SummarizeFunc
}

// WindowStats describes the current context footprint
type WindowStats struct {
	DetailedTurns  int `json:"detailed_turns"`
	SummaryTokens  int `json:"summary_tokens"`
	DetailedTokens int `json:"detailed_tokens"`
	TotalTokens    int `json:"total_tokens"`
}

// NewWindow creates a sliding window keeping the last windowSize
// turns verbatim (default 10)
func NewWindow(windowSize int) *Window {
	if windowSize <= 0 {
		windowSize = 10
	}
	return &Window{
		windowSize: windowSize,
		nextID:     1,
		summarize:  defaultTurnSummary,
	}
}

// SetSummarizer replaces the turn summarizer
func (w *Window) SetSummarizer(fn SummarizeFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fn != nil {
		w.summarize = fn
	}
}

// AddTurn appends a turn, compacting the oldest verbatim turn into
// the summary when the window overflows
func (w *Window) AddTurn(role, content string) Turn {
	w.mu.Lock()
	defer w.mu.Unlock()

	turn := Turn{
		ID:         w.nextID,
		Role:       role,
		Content:    content,
		Timestamp:  time.Now(),
		TokenCount: len(strings.Fields(content)),
	}
	w.nextID++
	w.turns = append(w.turns, turn)

	for len(w.turns) > w.windowSize {
		oldest := w.turns[0]
		w.turns = w.turns[1:]

		compressed := w.summarize(oldest)
		if w.summary == "" {
			w.summary = compressed
		} else {
			w.summary += " " + compressed
		}
	}
	return turn
}

// Context assembles the prompt context: summarized older history
// first, then the detailed recent turns
func (w *Window) Context() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var parts []string
	if w.summary != "" {
		parts = append(parts, "## Previous Context (Summarized)\n"+w.summary)
	}
	if len(w.turns) > 0 {
		lines := make([]string, 0, len(w.turns))
		for _, turn := range w.turns {
			lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
		}
		parts = append(parts, "## Recent Conversation\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// Turns returns a copy of the verbatim turns still in the window
func (w *Window) Turns() []Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	turns := make([]Turn, len(w.turns))
	copy(turns, w.turns)
	return turns
}

// Stats reports the token footprint of the window
func (w *Window) Stats() WindowStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := WindowStats{
		DetailedTurns: len(w.turns),
		SummaryTokens: len(strings.Fields(w.summary)),
	}
	for _, turn := range w.turns {
		stats.DetailedTokens += turn.TokenCount
	}
	stats.TotalTokens = stats.SummaryTokens + stats.DetailedTokens
	return stats
}

func defaultTurnSummary(turn Turn) string {
	content := turn.Content
	if len(content) > 100 {
		content = content[:100] + "..."
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(turn.Role), content)
}
