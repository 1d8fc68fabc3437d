package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
)

// DoInitConfig writes the default configuration to configPath unless a file
// already exists there.
func DoInitConfig(w io.Writer, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		_, _ = fmt.Fprintf(w, "Config already exists: %s\n", configPath)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(configPath, config.GenerateDefaultConfigYAML(), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Created: %s\n", configPath)
	return nil
}
