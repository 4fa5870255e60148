package router

import (
	"slices"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
)

// BuildContext converts stored history into the canonical message list sent to
// a provider: the most recent maxTurns messages, oldest first. A non-positive
// maxTurns means the default window. The input is not modified.
func BuildContext(history []types.Message, maxTurns int) []types.LlmMessage {
	if maxTurns <= 0 {
		maxTurns = config.DefaultContextWindow
	}

	ordered := slices.Clone(history)
	slices.SortStableFunc(ordered, func(a, b types.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if len(ordered) > maxTurns {
		ordered = ordered[len(ordered)-maxTurns:]
	}

	out := make([]types.LlmMessage, len(ordered))
	for i, m := range ordered {
		out[i] = types.LlmMessage{Role: llmRole(m.Role), Content: m.Content}
	}
	return out
}

// llmRole maps unrecognized stored roles to system so their content is kept.
func llmRole(r types.Role) types.LlmRole {
	switch r {
	case types.RoleUser:
		return types.LlmRoleUser
	case types.RoleAssistant:
		return types.LlmRoleAssistant
	default:
		return types.LlmRoleSystem
	}
}
