package pipeline

import "fmt"

// ConfigError reports a stage registration that violates its task's contract.
// It is raised during validation, before any stage has run.
type ConfigError struct {
	Stage  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pipeline configuration: stage %s: %s", e.Stage, e.Reason)
}

// ExecError reports a stage that started and failed. The pipeline aborts at
// the first ExecError; nothing is retried.
type ExecError struct {
	Stage string
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
