package main

// Exit codes shared by all subcommands.
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (invalid config, missing artifacts)
	ExitEncoderError = 3 // Embedding model server not available
	ExitDataError    = 4 // Data error (malformed input, artifact mismatch)
)
