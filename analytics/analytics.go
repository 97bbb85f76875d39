// Package analytics derives reporting-oriented views — tool invocation
// records, cost breakdowns, and structural statistics — from an already
// parsed session.Session. It never touches disk or a session log itself.
package analytics

import (
	"time"

	"github.com/bazelment/claude-sdk-go/content"
	"github.com/bazelment/claude-sdk-go/session"
)

// ToolExecution is one tool invocation matched to its result, extracted
// from a session's message stream.
type ToolExecution struct {
	InvocationID string
	ToolName     string
	Input        []byte
	Output       []byte // nil if no matching result was found
	Success      bool   // not an error, and a result was found
	Start        time.Time
	End          time.Time
	Duration     time.Duration
}

// ToolExecutions scans a session's messages in arrival order, matching
// each ToolUse block to the next ToolResult carrying the same invocation
// id later in the stream. An invocation whose result never arrives is
// still returned, in its first-seen position, with Success false and a
// nil Output.
func ToolExecutions(sess *session.Session) []ToolExecution {
	type slot struct {
		te       ToolExecution
		resolved bool
	}
	byID := make(map[string]*slot)
	var order []string

	for _, msg := range sess.Messages {
		for _, b := range msg.Content {
			switch b.Type {
			case content.BlockToolUse:
				if _, exists := byID[b.ToolUseID]; exists {
					continue
				}
				byID[b.ToolUseID] = &slot{te: ToolExecution{
					InvocationID: b.ToolUseID,
					ToolName:     b.ToolName,
					Input:        []byte(b.Input),
					Start:        msg.Timestamp,
				}}
				order = append(order, b.ToolUseID)
			case content.BlockToolResult:
				s, ok := byID[b.ToolUseID]
				if !ok || s.resolved {
					continue
				}
				s.te.Output = []byte(b.Result)
				s.te.Success = !b.IsError
				s.te.End = msg.Timestamp
				if !s.te.Start.IsZero() && !s.te.End.IsZero() {
					s.te.Duration = s.te.End.Sub(s.te.Start)
				}
				s.resolved = true
			}
		}
	}

	out := make([]ToolExecution, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id].te)
	}
	return out
}

// CostByTurn returns the per-message cost sequence, in message order. Zero
// for messages that carried no cost.
func CostByTurn(sess *session.Session) []float64 {
	return append([]float64(nil), sess.Metadata.CostPerTurn...)
}

// CostPerTool attributes each message's cost equally among the tools it
// invoked (zero contribution from messages that invoked none), summed by
// tool name.
func CostPerTool(sess *session.Session) map[string]float64 {
	out := make(map[string]float64)
	for _, msg := range sess.Messages {
		if msg.Cost == nil {
			continue
		}
		tools := msg.ToolUses()
		if len(tools) == 0 {
			continue
		}
		share := *msg.Cost / float64(len(tools))
		for _, b := range tools {
			out[b.ToolName] += share
		}
	}
	return out
}

// ConversationStats summarizes a session's structure.
type ConversationStats struct {
	MessageCount         int
	UniqueRoles          []content.Role
	BranchingFactor      float64
	OrphanCount          int
	MainChainLength      int
	CompactionBoundaries int // supplements spec.md 4.9's stat list, from Metadata
}

// Stats computes ConversationStats for sess.
func Stats(sess *session.Session) ConversationStats {
	stats := ConversationStats{
		MessageCount:         len(sess.Messages),
		CompactionBoundaries: sess.Metadata.CompactionBoundaries,
	}

	seenRoles := make(map[content.Role]bool)
	for _, msg := range sess.Messages {
		if !seenRoles[msg.Role] {
			seenRoles[msg.Role] = true
			stats.UniqueRoles = append(stats.UniqueRoles, msg.Role)
		}
	}

	if sess.Tree != nil {
		var branchSum, branchNodes int
		for _, node := range sess.Tree.Nodes {
			if node.Orphan {
				stats.OrphanCount++
			}
			if len(node.Children) > 0 {
				branchSum += len(node.Children)
				branchNodes++
			}
		}
		if branchNodes > 0 {
			stats.BranchingFactor = float64(branchSum) / float64(branchNodes)
		}

		stats.MainChainLength = len(sess.Tree.MainChain())
	}

	return stats
}
