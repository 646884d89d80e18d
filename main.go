// Package main provides the entry point for the docent CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/docent/generate"
	"github.com/dgnsrekt/docent/internal/archive"
	"github.com/dgnsrekt/docent/tts"
	"github.com/dgnsrekt/docent/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	apiKey     string
	plain      bool
	width      uint
	mouse      bool

	genCfg generate.Config
	uiCfg  ui.Config

	rootCmd = &cobra.Command{
		Use:   "docent [IMAGE]",
		Short: "Narrate photos out loud, one sentence at a time",
		Long: paragraph(
			fmt.Sprintf("\nNarrate photos and answer questions %s, speaking each sentence as soon as it arrives.", keyword("out loud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runDescribe(cmd.Context(), args[0])
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(expandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	plain = viper.GetBool("plain")

	genCfg = generate.DefaultConfig()
	genCfg.Backend = viper.GetString("backend")
	genCfg.Model = viper.GetString("model")
	genCfg.BaseURL = viper.GetString("generate.base_url")
	genCfg.RequestsPerMinute = viper.GetInt("generate.requests_per_minute")
	genCfg.MaxAttempts = viper.GetInt("generate.retry.max_attempts")
	genCfg.Language = narrationLanguage(viper.GetString("language"))
	if err := genCfg.Validate(); err != nil {
		return err //nolint:wrapcheck
	}

	if m := viper.GetString("voice.piper.model"); m != "" {
		viper.Set("voice.piper.model", expandPath(m))
	}

	// environment-only view settings
	var err error
	uiCfg, err = env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	if os.Getenv("DOCENT_UI_LANGUAGE") == "" {
		uiCfg.Language = genCfg.Language
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if !isTerminal {
		plain = true
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") && width == 0 && isTerminal {
		w, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err == nil {
			width = uint(w) //nolint:gosec
		}
		if width > 120 {
			width = 120
		}
	}
	if width > 0 {
		uiCfg.Width = width
	}
	uiCfg.EnableMouse = mouse
	return nil
}

// narrationLanguage turns the configured language into the one the
// generator is instructed to answer in. "auto" leaves it to the default.
func narrationLanguage(configured string) string {
	if configured == "" || configured == tts.LanguageAuto {
		return generate.DefaultConfig().Language
	}
	return configured
}

func expandPath(path string) string {
	if path == "" {
		return path
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return os.ExpandEnv(p)
}

func dataPath(name string) (string, error) {
	p, err := gap.NewScope(gap.User, "docent").DataPath(name)
	if err != nil {
		return "", fmt.Errorf("unable to find data directory: %w", err)
	}
	return p, nil
}

func archiveDir() (string, error) {
	if dir := viper.GetString("archive.dir"); dir != "" {
		return expandPath(dir), nil
	}
	return dataPath("archive")
}

func audioCacheDir() string {
	if dir := viper.GetString("voice.cache.dir"); dir != "" {
		return expandPath(dir)
	}
	dir, err := gap.NewScope(gap.User, "docent").CacheDir()
	if err != nil {
		log.Debug("No cache directory, keeping audio in memory", "err", err)
		return ""
	}
	return filepath.Join(dir, "audio")
}

func openArchive() (*archive.Archive, error) {
	dir, err := archiveDir()
	if err != nil {
		return nil, err
	}
	a, err := archive.Open(archive.Options{
		Dir:     dir,
		MaxSize: viper.GetInt64("archive.max_size"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open archive: %w", err)
	}
	return a, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.StringP("backend", "b", generate.BackendGemini, "narration backend (gemini, openai or proxy)")
	flags.String("model", "", "model name (empty uses the backend's default)")
	flags.StringP("language", "L", tts.DefaultLanguage, `narration language, or "auto" to detect it per sentence`)
	flags.StringP("voice", "v", tts.EngineConsole, "voice engine (console, piper, gtts, mock or none)")
	flags.StringVar(&apiKey, "api-key", "", "API key (overrides the saved key)")
	flags.BoolVarP(&plain, "plain", "p", false, "print the transcript as plain lines instead of the TUI")
	flags.UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to follow the terminal)")
	flags.BoolVarP(&mouse, "mouse", "m", false, "enable mouse (TUI-mode only)")
	_ = flags.MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("language", flags.Lookup("language"))
	_ = viper.BindPFlag("voice.engine", flags.Lookup("voice"))
	_ = viper.BindPFlag("plain", flags.Lookup("plain"))
	_ = viper.BindPFlag("width", flags.Lookup("width"))
	_ = viper.BindPFlag("mouse", flags.Lookup("mouse"))

	viper.SetDefault("backend", generate.BackendGemini)
	viper.SetDefault("language", tts.DefaultLanguage)
	viper.SetDefault("width", 0)
	viper.SetDefault("generate.requests_per_minute", generate.DefaultConfig().RequestsPerMinute)
	viper.SetDefault("voice.engine", tts.EngineConsole)
	viper.SetDefault("archive.max_size", archive.DefaultMaxSize)
	viper.SetDefault("share.server", "http://localhost:8080")

	rootCmd.AddCommand(describeCmd, askCmd, watchCmd, archiveCmd, shareCmd, serveCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "docent")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "docent")}, dirs...)
	}

	if c := os.Getenv("DOCENT_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("docent")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("docent")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	configFile = filepath.Join(dirs[0], "docent.yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
		return
	}
	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Warn("Could not parse configuration file", "err", err)
	}
}
