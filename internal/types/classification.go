package types

// Intent is the coarse category a draft message is classified into.
type Intent string

const (
	IntentChat     Intent = "chat"
	IntentCode     Intent = "code"
	IntentAnalysis Intent = "analysis"
	IntentRewrite  Intent = "rewrite"
)

// Intents lists every valid intent in prompt order.
func Intents() []Intent {
	return []Intent{IntentChat, IntentCode, IntentAnalysis, IntentRewrite}
}

func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentChat, IntentCode, IntentAnalysis, IntentRewrite:
		return Intent(s), true
	default:
		return "", false
	}
}

// ClassificationResult is an advisory routing hint for a draft message.
type ClassificationResult struct {
	Intent         Intent `json:"intent"`
	SuggestedModel string `json:"suggestedModel"`
	Reason         string `json:"reason"`
}
