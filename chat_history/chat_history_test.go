package chat_history

import (
	"testing"

	"github.com/openlovable/lovable/chat_history/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHistory_AppendAndFilter(t *testing.T) {
	history := NewChatHistory("You are Lovable.")

	user := history.AddToHistory(models.RoleUser, "make a todo app")
	assistant := history.AddToHistory(models.RoleAssistant, "done")

	all := history.GetHistory()
	require.Len(t, all, 3)
	assert.Equal(t, models.RoleSystem, all[0].Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, user.ID, assistant.ID)

	nonSystem := history.GetNonSystemHistory()
	assert.Equal(t, []models.Message{user, assistant}, nonSystem)
}

func TestChatHistory_ReturnsCopies(t *testing.T) {
	history := NewChatHistory()
	history.AddToHistory(models.RoleUser, "hello")

	snapshot := history.GetHistory()
	snapshot[0].Content = "tampered"

	assert.Equal(t, "hello", history.GetHistory()[0].Content)
}

func TestChatHistory_ClearKeepsSeed(t *testing.T) {
	history := NewChatHistory("system prompt")
	history.AddToHistory(models.RoleUser, "hello")

	history.ClearHistory()

	all := history.GetHistory()
	require.Len(t, all, 1)
	assert.Equal(t, "system prompt", all[0].Content)
	assert.Empty(t, history.GetNonSystemHistory())
}
