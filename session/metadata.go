package session

import "github.com/bazelment/claude-sdk-go/content"

// computeMetadata recomputes every aggregate from the final message set.
// Nothing here is read from an upstream "summary" record; summary-derived
// strings only ever land in Metadata.Hints.
func computeMetadata(messages []content.Message, hints []string, compactions int) Metadata {
	m := Metadata{
		ToolCounts:           map[string]int{},
		Hints:                hints,
		CompactionBoundaries: compactions,
		TotalMessages:        len(messages),
	}
	if len(messages) == 0 {
		return m
	}

	m.Start = messages[0].Timestamp
	m.End = messages[len(messages)-1].Timestamp
	m.Duration = m.End.Sub(m.Start)

	seenModel := map[string]bool{}
	for _, msg := range messages {
		if msg.Cost != nil {
			m.TotalCost += *msg.Cost
			m.CostPerTurn = append(m.CostPerTurn, *msg.Cost)
		} else {
			m.CostPerTurn = append(m.CostPerTurn, 0)
		}

		m.Tokens.Input += msg.Usage.InputTokens
		m.Tokens.CacheRead += msg.Usage.CacheReadTokens
		m.Tokens.CacheCreated += msg.Usage.CacheWriteTokens
		m.Tokens.Output += msg.Usage.OutputTokens

		if msg.Model != "" && !seenModel[msg.Model] {
			seenModel[msg.Model] = true
			m.Models = append(m.Models, msg.Model)
		}

		for _, b := range msg.ToolUses() {
			if _, counted := m.ToolCounts[b.ToolName]; !counted {
				m.toolOrder = append(m.toolOrder, b.ToolName)
			}
			m.ToolCounts[b.ToolName]++
		}
	}

	return m
}
