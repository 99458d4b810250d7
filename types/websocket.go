package types

const (
	TypeWebsocketPing       = "ping"
	TypeWebsocketPong       = "pong"
	TypeWebsocketChat       = "chat"
	TypeWebsocketProcessing = "processing"
	TypeWebsocketAnswer     = "answer"
	TypeWebsocketError      = "error"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChatPayload struct {
	Query            string            `json:"query"`
	ConversationID   string            `json:"conversation_id,omitempty"`
	ContextDocuments []ContextDocument `json:"context_documents,omitempty"`
}

type WebSocketProcessingResponse struct {
	Message string `json:"message"`
}
