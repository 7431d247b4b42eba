// Package setup registers the lite MCP server with desktop MCP clients.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerName is the key under which the server is registered.
const ServerName = "preeclampsia-risk"

// BinaryName is the lite server executable.
const BinaryName = "mcp-server-lite"

// ClaudeDesktopConfig represents the Claude Desktop configuration file structure.
type ClaudeDesktopConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	// Other top-level keys are preserved verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options contains options for the setup process.
type Options struct {
	ConfigPath string // Client config file; empty uses the platform default
	BinaryPath string // Path to the lite server binary
	DataDir    string // PE_DATA_DIR for the server
	ModelPath  string // PE_MODEL_PATH for the server
	Language   string // PE_LANGUAGE for the server
}

func (c *ClaudeDesktopConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.MCPServers = make(map[string]MCPServerConfig)
	if servers, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(servers, &c.MCPServers); err != nil {
			return fmt.Errorf("mcpServers: %w", err)
		}
		delete(raw, "mcpServers")
	}
	c.Extra = raw
	return nil
}

func (c ClaudeDesktopConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+1)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["mcpServers"] = c.MCPServers
	return json.Marshal(out)
}

// GetClaudeDesktopConfigPath returns the path to Claude Desktop's config file.
func GetClaudeDesktopConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClaudeDesktopConfig loads the existing configuration. A missing file
// yields an empty configuration.
func LoadClaudeDesktopConfig(configPath string) (*ClaudeDesktopConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ClaudeDesktopConfig{MCPServers: make(map[string]MCPServerConfig)}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ClaudeDesktopConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// SaveClaudeDesktopConfig writes the configuration, creating its directory.
func SaveClaudeDesktopConfig(configPath string, config *ClaudeDesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Configure adds or replaces the server entry and returns the file written.
func Configure(opts Options) (string, error) {
	configPath, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return "", err
	}

	config, err := LoadClaudeDesktopConfig(configPath)
	if err != nil {
		return "", err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		if binaryPath, err = findBinary(); err != nil {
			return "", fmt.Errorf("could not find server binary: %w", err)
		}
	}

	env := make(map[string]string)
	if opts.DataDir != "" {
		env["PE_DATA_DIR"] = opts.DataDir
	}
	if opts.ModelPath != "" {
		env["PE_MODEL_PATH"] = opts.ModelPath
	}
	if opts.Language != "" {
		env["PE_LANGUAGE"] = opts.Language
	}

	config.MCPServers[ServerName] = MCPServerConfig{Command: binaryPath, Env: env}

	if err := SaveClaudeDesktopConfig(configPath, config); err != nil {
		return "", err
	}
	return configPath, nil
}

// Status represents the current setup status.
type Status struct {
	ConfigPath string   `json:"config_path"`
	Configured bool     `json:"configured"`
	ServerPath string   `json:"server_path,omitempty"`
	DataDir    string   `json:"data_dir"`
	ModelPath  string   `json:"model_path,omitempty"`
	Issues     []string `json:"issues"`
}

// GetStatus inspects the client configuration and the files it points to.
func GetStatus(configPath string) (*Status, error) {
	configPath, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	status := &Status{ConfigPath: configPath, Issues: []string{}}

	config, err := LoadClaudeDesktopConfig(configPath)
	if err != nil {
		return nil, err
	}

	server, ok := config.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "server is not registered")
	} else {
		status.Configured = true
		status.ServerPath = server.Command
		status.DataDir = server.Env["PE_DATA_DIR"]
		status.ModelPath = server.Env["PE_MODEL_PATH"]

		if _, err := os.Stat(server.Command); err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", server.Command))
		}
		if status.ModelPath != "" {
			if _, err := os.Stat(status.ModelPath); err != nil {
				status.Issues = append(status.Issues, fmt.Sprintf("model artifact not found: %s", status.ModelPath))
			}
		}
	}

	if status.DataDir == "" {
		home, _ := os.UserHomeDir()
		status.DataDir = filepath.Join(home, ".preeclampsia-risk")
	}
	return status, nil
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return GetClaudeDesktopConfigPath()
}

// findBinary looks on PATH, then in common build locations.
func findBinary() (string, error) {
	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	locations := []string{
		"./" + BinaryName,
		"./build/" + BinaryName,
		filepath.Join(home, ".local", "bin", BinaryName),
		"/usr/local/bin/" + BinaryName,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}

	return "", fmt.Errorf("binary '%s' not found in common locations", BinaryName)
}
