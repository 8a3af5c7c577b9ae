package model

type Chat struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// CloneMessages returns a copy of the message log safe to hand to other
// goroutines or observers.
func (c Chat) CloneMessages() []Message {
	messages := make([]Message, len(c.Messages))
	copy(messages, c.Messages)
	return messages
}
