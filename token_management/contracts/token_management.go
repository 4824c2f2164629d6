package contracts

import "github.com/openlovable/lovable/token_management/models"

// ITokenManagement collects the usage providers report at the end of each
// stream and prices it per model.
type ITokenManagement interface {
	UsedTokens(inputToken int, outputToken int)
	CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64
	DisplayTokens(providerName string, model string)
	Usage() models.TokenUsage
	ClearToken()
}
