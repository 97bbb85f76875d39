package session

import "time"

// Warning is a non-fatal anomaly surfaced while parsing one line, or while
// building the conversation tree from the parsed lines.
type Warning struct {
	Reason  string
	Excerpt string
	Line    int
}

// TokenTotals sums token counters across every message in a session.
type TokenTotals struct {
	Input        int
	CacheRead    int
	CacheCreated int
	Output       int
}

// Metadata is derived, never trusted, from the message set: every aggregate
// here is recomputed in one pass over Session.Messages rather than read
// from any upstream "summary" record. Hints is the exception: it carries
// text taken from summary and pr-link records.
type Metadata struct {
	Start                time.Time
	End                  time.Time
	ToolCounts           map[string]int
	Hints                []string // e.g. pr-link URLs surfaced by envelope-only records
	Models               []string
	toolOrder            []string // first-use order, mirrored into UniqueTools()
	TotalMessages        int
	CompactionBoundaries int
	TotalCost            float64
	Tokens               TokenTotals
	CostPerTurn          []float64
	Duration             time.Duration
}

// UniqueTools returns the tool names invoked anywhere in the session, in
// the order each was first used.
func (m Metadata) UniqueTools() []string {
	out := make([]string, len(m.toolOrder))
	copy(out, m.toolOrder)
	return out
}
