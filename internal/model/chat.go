package model

// ChatMessage is one turn of the client conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatTurn carries everything one chat request needs.
type ChatTurn struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
	User                *User         `json:"user,omitempty"`
	CourseID            string        `json:"courseId"`
	FileIDs             []string      `json:"fileIds"`
	SessionID           string        `json:"sessionId"`
	Model               string        `json:"model"`
}
