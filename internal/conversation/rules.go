package conversation

import "strings"

// Rule is a canned-reply shortcut evaluated before the gateway: the first
// rule whose predicate matches answers the message without a model call.
// Content routing like this stays out of the send pipeline proper — rules
// are plain data passed in at construction.
type Rule struct {
	Name  string
	Match func(text string) bool
	Reply string
}

// SubstringRule answers any message containing substr (case-insensitive).
func SubstringRule(name, substr, reply string) Rule {
	lowered := strings.ToLower(substr)
	return Rule{
		Name: name,
		Match: func(text string) bool {
			return strings.Contains(strings.ToLower(text), lowered)
		},
		Reply: reply,
	}
}
