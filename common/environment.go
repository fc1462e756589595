package common

import "os"

// EnvironmentVariable mirrors azcopy's common.EnvironmentVariable: a
// name/default/description triple, looked up lazily rather than cached, so
// tests can mutate os.Environ freely (common/environment.go in the teacher).
type EnvironmentVariable struct {
	Name        string
	Default     string
	Description string
}

// GetEnvironmentVariable returns the environment variable's value, or its
// documented default if unset or empty.
func GetEnvironmentVariable(v EnvironmentVariable) string {
	if val := os.Getenv(v.Name); val != "" {
		return val
	}
	return v.Default
}

// EEnvironmentVariable is the enum-style namespace the rest of the codebase
// reaches through, e.g. EEnvironmentVariable.DataMoverURL().
var EEnvironmentVariable = environmentVariableNamespace{}

type environmentVariableNamespace struct{}

func (environmentVariableNamespace) DataMoverURL() EnvironmentVariable {
	return EnvironmentVariable{
		Name:        "TOCMOVER_DATA_MOVER_URL",
		Default:     "",
		Description: "base URL of the data mover's JSON-RPC control endpoint",
	}
}

func (environmentVariableNamespace) ConfigPath() EnvironmentVariable {
	return EnvironmentVariable{
		Name:        "TOCMOVER_CONFIG",
		Default:     "",
		Description: "path to the optional YAML configuration file",
	}
}

func (environmentVariableNamespace) LogLevel() EnvironmentVariable {
	return EnvironmentVariable{
		Name:        "TOCMOVER_LOG_LEVEL",
		Default:     "info",
		Description: "minimum log level: error, warn, info, or debug",
	}
}

// VisibleEnvironmentVariables lists every public environment variable this
// core consults, the way azcopy's common.VisibleEnvironmentVariables does
// for `azcopy env`.
var VisibleEnvironmentVariables = []EnvironmentVariable{
	EEnvironmentVariable.DataMoverURL(),
	EEnvironmentVariable.ConfigPath(),
	EEnvironmentVariable.LogLevel(),
}
