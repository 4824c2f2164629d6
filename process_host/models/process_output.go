package models

// ProcessOutput is the captured result of a finished child process.
type ProcessOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ProcessOptions carries the optional working directory and environment
// overrides for a child process.
type ProcessOptions struct {
	Dir string
	Env map[string]string
}
