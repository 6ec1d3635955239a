// File: internal/agent/memory.go
package agent

import (
	"strings"
	"sync"
)

// sessionMemory is the bounded progress log kept per browser session. It
// gives the model continuity between turns without replaying full
// conversation history. Lost on worker restart, which is acceptable: the
// next screenshot re-anchors the model.
type sessionMemory struct {
	mu      sync.Mutex
	limit   int
	entries []string
}

func newSessionMemory(limit int) *sessionMemory {
	return &sessionMemory{limit: limit}
}

// addProgress records a truncated note for one turn, dropping the oldest
// entry once the limit is reached.
func (m *sessionMemory) addProgress(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if len(note) > maxProgressNote {
		note = note[:maxProgressNote]
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, note)
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
}

// progressSummary renders the log as a bullet list for the turn prompt.
func (m *sessionMemory) progressSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, entry := range m.entries {
		b.WriteString("- ")
		b.WriteString(entry)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
