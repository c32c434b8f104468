package types

// Action tells the invoking agent framework what to do with an Outcome.
type Action string

const (
	// ActionRequestLLM hands the text to the language model for a reply.
	ActionRequestLLM Action = "req_llm"
	// ActionClarify asks the user to confirm or restate the location.
	ActionClarify Action = "clarify"
	// ActionFailed reports that the upstream request failed.
	ActionFailed Action = "failed"
)

// Outcome is the result of a weather query. It is always returned in place of
// an error so the agent can respond to the user in every case.
type Outcome struct {
	Action Action `json:"action"`
	Text   string `json:"text"`
}
