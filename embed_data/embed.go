package embed_data

import _ "embed"

//go:embed prompts/system_react.txt
var SystemReactPrompt []byte

//go:embed models_details/model_details.json
var ModelDetails []byte

//go:embed tree_sitter_queries/javascript.json
var JavascriptQuery []byte

//go:embed tree_sitter_queries/typescript.json
var TypescriptQuery []byte
