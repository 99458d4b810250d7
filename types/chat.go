package types

// Message represents a single message in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// QueryRequest is the query entrypoint payload. A missing conversation id
// creates a new conversation whose generated id is returned.
type QueryRequest struct {
	Query            string            `json:"query"`
	ConversationID   string            `json:"conversation_id,omitempty"`
	ContextDocuments []ContextDocument `json:"context_documents,omitempty"`
}

// Excerpt is a user-facing evidence excerpt attached to an answer.
type Excerpt struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    int    `json:"page,omitempty"`
}

// QueryResponse is the answer to a single user message.
type QueryResponse struct {
	Answer         string    `json:"answer"`
	Sources        []string  `json:"sources"`
	Excerpts       []Excerpt `json:"excerpts"`
	ConversationID string    `json:"conversation_id"`
}

// HistoryResponse is the stored question/answer trail of a conversation.
type HistoryResponse struct {
	ConversationID string     `json:"conversation_id"`
	Title          string     `json:"title,omitempty"`
	Category       string     `json:"category,omitempty"`
	QuestionCount  int64      `json:"question_count"`
	Exchanges      []Exchange `json:"exchanges"`
}
