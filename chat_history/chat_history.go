package chat_history

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openlovable/lovable/chat_history/contracts"
	"github.com/openlovable/lovable/chat_history/models"
)

// ChatHistory is an append-only conversation log. The system messages it
// was seeded with survive ClearHistory.
type ChatHistory struct {
	mu       sync.RWMutex
	seed     []models.Message
	messages []models.Message
}

func NewChatHistory(systemMessages ...string) contracts.IChatHistory {
	history := &ChatHistory{}
	for _, content := range systemMessages {
		history.seed = append(history.seed, newMessage(models.RoleSystem, content))
	}
	history.messages = append([]models.Message(nil), history.seed...)
	return history
}

func (ch *ChatHistory) AddToHistory(role models.Role, content string) models.Message {
	message := newMessage(role, content)

	ch.mu.Lock()
	ch.messages = append(ch.messages, message)
	ch.mu.Unlock()

	return message
}

// GetHistory returns a copy of every message in order.
func (ch *ChatHistory) GetHistory() []models.Message {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return append([]models.Message(nil), ch.messages...)
}

func (ch *ChatHistory) GetNonSystemHistory() []models.Message {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	var messages []models.Message
	for _, message := range ch.messages {
		if message.Role != models.RoleSystem {
			messages = append(messages, message)
		}
	}
	return messages
}

func (ch *ChatHistory) ClearHistory() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.messages = append([]models.Message(nil), ch.seed...)
}

func newMessage(role models.Role, content string) models.Message {
	return models.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
