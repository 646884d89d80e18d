package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# narration backend: gemini, openai or proxy
backend: "gemini"
# model name (empty uses the backend's default)
model: ""
# narration language: a BCP-47 tag such as ko-KR, or "auto" to detect it
# per sentence
language: "ko-KR"
# word-wrap the transcript at width (0 follows the terminal)
width: 0
# mouse support (TUI-mode only)
mouse: false

generate:
  # requests per minute sent to the backend (0 disables limiting)
  requests_per_minute: 10
  # proxy URL or OpenAI-compatible base URL
  # base_url: "http://localhost:8080/api/generate"
  retry:
    max_attempts: 3

voice:
  # console, piper, gtts, mock or none
  engine: "console"
  words_per_minute: 180
  volume: 1.0
  sample_rate: 22050
  piper:
    binary: "piper"
    # model: "~/.local/share/piper/ko_KR-kss-medium.onnx"
    speed: 1.0
    speaker_id: 0
    sentence_silence: "200ms"
    timeout: "30s"
  gtts:
    # needs gtts-cli (pip install gtts) and ffmpeg
    slow: false
    requests_per_minute: 50
  cache:
    # synthesized audio cache (empty uses the user cache directory)
    dir: ""

archive:
  # archive database directory (empty uses the user data directory)
  dir: ""
  # storage quota in bytes
  max_size: 52428800

share:
  # docent server used by "docent share"
  server: "http://localhost:8080"

server:
  listen: ":8080"
  requests_per_minute: 30
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the docent config file",
	Long:    paragraph(fmt.Sprintf("\n%s the docent config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("docent config\ndocent config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Docent", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
