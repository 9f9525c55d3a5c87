package dialogue

import "strings"

// policyKeywords trigger the POLICY_INQUIRY override when present in a user
// message.
var policyKeywords = []string{
	"policy", "refund", "return", "exchange", "shipping", "delivery",
	"privacy", "terms", "conditions", "legal", "disclaimer", "cancellation",
	"money back", "guarantee", "warranty", "data protection",
}

// ShouldEnterPolicyInquiry reports whether the turn should override the next
// state to POLICY_INQUIRY: either the NLU intent is policy_inquiry or the
// message mentions a policy topic.
func ShouldEnterPolicyInquiry(userMessage, intent string) bool {
	if intent == "policy_inquiry" {
		return true
	}
	lower := strings.ToLower(userMessage)
	for _, keyword := range policyKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
