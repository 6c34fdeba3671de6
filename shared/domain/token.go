package domain

// TokenBreakdown is a single estimate; each new one replaces the previous wholesale.
type TokenBreakdown struct {
	PostContentTokens    int
	PersonaPromptTokens  int
	SystemPromptTokens   int
	AttachmentsTokens    int
	ChatHistoryTokens    int
	TotalEstimatedTokens int
	ModelContextWindow   int
	ModelName            string
	PersonaName          string
}
