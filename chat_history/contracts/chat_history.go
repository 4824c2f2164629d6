package contracts

import "github.com/openlovable/lovable/chat_history/models"

type IChatHistory interface {
	AddToHistory(role models.Role, content string) models.Message
	GetHistory() []models.Message
	GetNonSystemHistory() []models.Message
	ClearHistory()
}
