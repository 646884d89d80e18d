package tts

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Engines a voice can be built from.
const (
	EngineConsole = "console"
	EnginePiper   = "piper"
	EngineGTTS    = "gtts"
	EngineMock    = "mock"
	EngineNone    = "none"
)

// LanguageAuto asks for the utterance language to be detected per sentence.
const LanguageAuto = "auto"

// VoiceConfig contains all voice configuration options.
type VoiceConfig struct {
	Engine   string `yaml:"engine"`
	Language string `yaml:"language"` // BCP-47 tag or "auto"

	// Audio settings
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`

	Console ConsoleConfig `yaml:"console"`
	Piper   PiperConfig   `yaml:"piper"`
	GTTS    GTTSConfig    `yaml:"gtts"`
}

// ConsoleConfig paces printed sentences like speech.
type ConsoleConfig struct {
	WordsPerMinute int `yaml:"words_per_minute"`
}

// PiperConfig contains Piper engine specific settings.
type PiperConfig struct {
	Binary          string        `yaml:"binary"`
	Model           string        `yaml:"model"`
	SpeakerID       int           `yaml:"speaker_id"`
	LengthScale     float64       `yaml:"length_scale"`
	NoiseScale      float64       `yaml:"noise_scale"`
	NoiseW          float64       `yaml:"noise_w"`
	SentenceSilence time.Duration `yaml:"sentence_silence"`
	Timeout         time.Duration `yaml:"timeout"`
}

// GTTSConfig configures the Google Translate voice, which runs gtts-cli and
// decodes its MP3 output with ffmpeg.
type GTTSConfig struct {
	Binary            string        `yaml:"binary"`
	FFmpeg            string        `yaml:"ffmpeg"`
	Slow              bool          `yaml:"slow"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// DefaultVoiceConfig returns a VoiceConfig with sensible defaults.
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Engine:     EngineConsole,
		Language:   DefaultLanguage,
		SampleRate: 22050,
		Volume:     1.0,
		Console:    ConsoleConfig{WordsPerMinute: 160},
		Piper:      DefaultPiperConfig(),
		GTTS:       DefaultGTTSConfig(),
	}
}

// DefaultGTTSConfig returns default gTTS configuration.
func DefaultGTTSConfig() GTTSConfig {
	return GTTSConfig{
		Binary:            "gtts-cli",
		FFmpeg:            "ffmpeg",
		RequestsPerMinute: 50,
		Timeout:           30 * time.Second,
	}
}

// DefaultPiperConfig returns default Piper configuration.
func DefaultPiperConfig() PiperConfig {
	return PiperConfig{
		Binary:          "piper",
		LengthScale:     1.0,
		NoiseScale:      0.667,
		NoiseW:          0.8,
		SentenceSilence: 200 * time.Millisecond,
		Timeout:         30 * time.Second,
	}
}

// Validate checks if the configuration is valid and normalizes names.
func (c *VoiceConfig) Validate() error {
	validEngines := []string{EngineConsole, EnginePiper, EngineGTTS, EngineMock, EngineNone}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = e
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("invalid voice engine '%s': must be one of %v", c.Engine, validEngines)
	}

	if !strings.EqualFold(c.Language, LanguageAuto) {
		tag, err := language.Parse(c.Language)
		if err != nil {
			return fmt.Errorf("invalid language %q: %w", c.Language, err)
		}
		c.Language = tag.String()
	} else {
		c.Language = LanguageAuto
	}

	if c.Volume < 0.0 || c.Volume > 2.0 {
		return fmt.Errorf("volume must be between 0.0 and 2.0, got %f", c.Volume)
	}

	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}

	switch c.Engine {
	case EngineConsole:
		if err := c.Console.Validate(); err != nil {
			return fmt.Errorf("console config: %w", err)
		}
	case EnginePiper:
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
	case EngineGTTS:
		if err := c.GTTS.Validate(); err != nil {
			return fmt.Errorf("gtts config: %w", err)
		}
	}

	return nil
}

// Validate checks if the console configuration is valid.
func (c *ConsoleConfig) Validate() error {
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 500 {
		return fmt.Errorf("words_per_minute must be between 50 and 500, got %d", c.WordsPerMinute)
	}
	return nil
}

// Validate checks if the Piper configuration is valid.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("piper binary path cannot be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("piper model cannot be empty")
	}
	if c.LengthScale <= 0 || c.LengthScale > 3.0 {
		return fmt.Errorf("length_scale must be between 0.1 and 3.0, got %f", c.LengthScale)
	}
	if c.NoiseScale < 0 || c.NoiseScale > 2.0 {
		return fmt.Errorf("noise_scale must be between 0.0 and 2.0, got %f", c.NoiseScale)
	}
	if c.NoiseW < 0 || c.NoiseW > 2.0 {
		return fmt.Errorf("noise_w must be between 0.0 and 2.0, got %f", c.NoiseW)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	return nil
}

// Validate checks if the gTTS configuration is valid.
func (c *GTTSConfig) Validate() error {
	if c.Binary == "" || c.FFmpeg == "" {
		return fmt.Errorf("gtts-cli and ffmpeg paths cannot be empty")
	}
	if c.RequestsPerMinute < 1 || c.RequestsPerMinute > 600 {
		return fmt.Errorf("requests_per_minute must be between 1 and 600, got %d", c.RequestsPerMinute)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	return nil
}
