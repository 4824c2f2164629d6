package token_management

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/openlovable/lovable/constants/lipgloss"
	"github.com/openlovable/lovable/embed_data"
	"github.com/openlovable/lovable/token_management/contracts"
	"github.com/openlovable/lovable/token_management/models"
)

// tokenManager accumulates usage reported by providers, which call it from
// their streaming goroutines.
type tokenManager struct {
	mu              sync.Mutex
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

type details struct {
	MaxTokens                  int     `json:"max_tokens"`
	MaxInputTokens             int     `json:"max_input_tokens"`
	MaxOutputTokens            int     `json:"max_output_tokens"`
	InputCostPerMillionTokens  float64 `json:"input_cost_per_million_tokens,omitempty"`
	OutputCostPerMillionTokens float64 `json:"output_cost_per_million_tokens,omitempty"`
	Mode                       string  `json:"mode"`
}

type Models struct {
	ModelDetails map[string]details `json:"models"`
}

var (
	modelDetailsOnce sync.Once
	modelDetails     Models
	modelDetailsErr  error
)

func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenManager) UsedTokens(inputToken int, outputToken int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) DisplayTokens(providerName string, model string) {
	usage := tm.Usage()
	cost := tm.CalculateCost(providerName, model, usage.Input, usage.Output)

	tokenInfo := fmt.Sprintf("Token Used: %d (in %d / out %d) - Cost: %.6f $ - Model: %s", usage.Total, usage.Input, usage.Output, cost, model)
	fmt.Println(lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) Usage() models.TokenUsage {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return models.TokenUsage{Total: tm.usedToken, Input: tm.usedInputToken, Output: tm.usedOutputToken}
}

func (tm *tokenManager) ClearToken() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}

// CalculateCost prices the tokens from the embedded model table; unknown models cost 0.
func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil {
		return 0
	}
	inputCost := float64(inputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0
	return inputCost + outputCost
}

func getModelDetails(providerName string, modelName string) (details, error) {
	providerName = strings.ToLower(providerName)
	modelName = strings.ToLower(modelName)

	if providerName == "openrouter" {
		modelName = "openrouter/" + modelName
	}

	modelDetailsOnce.Do(func() {
		modelDetails = Models{ModelDetails: make(map[string]details)}
		modelDetailsErr = json.Unmarshal(embed_data.ModelDetails, &modelDetails)
	})
	if modelDetailsErr != nil {
		return details{}, fmt.Errorf("error unmarshaling model details: %w", modelDetailsErr)
	}

	model, exists := modelDetails.ModelDetails[modelName]
	if !exists {
		return details{}, fmt.Errorf("model details price with name '%s' not found for provider '%s'", modelName, providerName)
	}
	return model, nil
}
