package openai

import "github.com/kart-io/ragquery/pkg/llm"

// ChatMessage 是 chat API 中的一条消息。
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest chat API 请求体。
type ChatCompletionRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// NewChatCompletionRequest 将 llm.ChatRequest 转换为请求体。
func NewChatCompletionRequest(model string, req *llm.ChatRequest) ChatCompletionRequest {
	messages := make([]ChatMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = ChatMessage{Role: string(msg.Role), Content: msg.Content}
	}
	return ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
}

// ChatCompletionResponse chat API 响应体。
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int          `json:"index"`
		Message      *ChatMessage `json:"message"`
		FinishReason string       `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ToChatResponse 转换为 llm.ChatResponse。message 为 null 的候选记为空内容。
func (r *ChatCompletionResponse) ToChatResponse() *llm.ChatResponse {
	out := &llm.ChatResponse{Choices: make([]llm.Choice, 0, len(r.Choices))}
	for _, c := range r.Choices {
		choice := llm.Choice{FinishReason: c.FinishReason}
		if c.Message != nil {
			choice.Message = llm.Message{Role: llm.Role(c.Message.Role), Content: c.Message.Content}
		}
		out.Choices = append(out.Choices, choice)
	}
	if r.Usage != nil {
		out.Usage = &llm.TokenUsage{
			PromptTokens:     r.Usage.PromptTokens,
			CompletionTokens: r.Usage.CompletionTokens,
			TotalTokens:      r.Usage.TotalTokens,
		}
	}
	return out
}

// EmbeddingRequest embedding API 请求体。
type EmbeddingRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

// EmbeddingResponse embedding API 响应体。
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Vectors 按 index 排列向量，越界的条目被忽略。
func (r *EmbeddingResponse) Vectors(n int) [][]float32 {
	out := make([][]float32, n)
	for _, d := range r.Data {
		if d.Index >= 0 && d.Index < n {
			out[d.Index] = d.Embedding
		}
	}
	return out
}
