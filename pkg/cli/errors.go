package cli

import "fmt"

// ConfigError reports a problem with the loaded configuration. Field
// names the offending key in dotted form ("rate_limit.burst") and may
// be empty when the file as a whole failed to load or parse.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration at %s: %s", e.Field, e.Message)
}

// CommandError tags a failure with the subcommand that hit it, so a
// wrapped error surfaces as "unblock failed: ..." at the top level.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}
