package models

import (
	"time"

	history_models "github.com/openlovable/lovable/chat_history/models"
	parser_models "github.com/openlovable/lovable/code_parser/models"
	"github.com/openlovable/lovable/project"
	sandbox_models "github.com/openlovable/lovable/project_sandbox/models"
)

// State is the stage the current turn is in.
type State string

const (
	StateIdle                  State = "idle"
	StateStreaming             State = "streaming"
	StateParsing               State = "parsing"
	StateWriting               State = "writing"
	StateResolvingDependencies State = "resolving_dependencies"
	StateStartingServer        State = "starting_server"
)

// Outcome says where a turn ended.
type Outcome string

const (
	OutcomeCompleted       Outcome = "completed"
	OutcomeProviderFailed  Outcome = "provider_failed"
	OutcomeParseFailed     Outcome = "parse_failed"
	OutcomeWriteFailed     Outcome = "write_failed"
	OutcomePreflightFailed Outcome = "preflight_failed"
	OutcomeServerFailed    Outcome = "server_failed"
)

const (
	SourcePipeline  = "pipeline"
	SourceDevServer = "devserver"
)

// LogEntry is one line of the project log shown next to the preview.
type LogEntry struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
}

// TurnResult describes a finished turn. Err holds the stage failure, if any.
type TurnResult struct {
	Outcome          Outcome                          `json:"outcome"`
	Artifact         *parser_models.GeneratedArtifact `json:"artifact,omitempty"`
	Report           *sandbox_models.WriteReport      `json:"report,omitempty"`
	Packages         []string                         `json:"packages,omitempty"`
	PreviewURL       string                           `json:"preview_url,omitempty"`
	AssistantMessage string                           `json:"assistant_message,omitempty"`
	Err              error                            `json:"-"`
}

// Snapshot is a consistent copy of the shared state.
type Snapshot struct {
	State          State                    `json:"state"`
	Busy           bool                     `json:"busy"`
	Project        *project.Project         `json:"project"`
	SelectedFileID string                   `json:"selected_file_id,omitempty"`
	Messages       []history_models.Message `json:"messages"`
	PreviewURL     string                   `json:"preview_url,omitempty"`
	ServerRunning  bool                     `json:"server_running"`
	Commands       []string                 `json:"commands,omitempty"`
	Provider       string                   `json:"provider"`
	Model          string                   `json:"model"`
}
