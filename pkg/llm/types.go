package llm

// CompletionRequest carries a linearized transcript and generation parameters
// to an inference backend.
type CompletionRequest struct {
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"max_tokens"`
	Temperature   float32  `json:"temperature"`
	TopP          float32  `json:"top_p"`
	RepeatPenalty float32  `json:"repeat_penalty"`
	Stop          []string `json:"stop"`
}

// CompletionResponse is the raw result of a completion call, before any
// label post-processing.
type CompletionResponse struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Usage tracks token consumption for a request/response pair.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
