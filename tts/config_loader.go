package tts

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadVoiceConfig loads voice configuration from Viper.
func LoadVoiceConfig(v *viper.Viper) (VoiceConfig, error) {
	cfg := DefaultVoiceConfig()

	if v.IsSet("voice.engine") {
		cfg.Engine = v.GetString("voice.engine")
	}
	if v.IsSet("language") {
		cfg.Language = v.GetString("language")
	}
	if v.IsSet("voice.sample_rate") {
		cfg.SampleRate = v.GetInt("voice.sample_rate")
	}
	if v.IsSet("voice.volume") {
		cfg.Volume = v.GetFloat64("voice.volume")
	}
	if v.IsSet("voice.words_per_minute") {
		cfg.Console.WordsPerMinute = v.GetInt("voice.words_per_minute")
	}

	cfg.Piper = loadPiperConfig(v)
	cfg.GTTS = loadGTTSConfig(v)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid voice configuration: %w", err)
	}

	return cfg, nil
}

// loadPiperConfig loads Piper-specific configuration from Viper.
func loadPiperConfig(v *viper.Viper) PiperConfig {
	cfg := DefaultPiperConfig()

	if v.IsSet("voice.piper.binary") {
		cfg.Binary = v.GetString("voice.piper.binary")
	}
	if v.IsSet("voice.piper.model") {
		cfg.Model = v.GetString("voice.piper.model")
	}
	if v.IsSet("voice.piper.speaker_id") {
		cfg.SpeakerID = v.GetInt("voice.piper.speaker_id")
	}
	if v.IsSet("voice.piper.speed") {
		// speed is the inverse of piper's length scale
		if speed := v.GetFloat64("voice.piper.speed"); speed > 0 {
			cfg.LengthScale = 1.0 / speed
		}
	}
	if v.IsSet("voice.piper.noise_scale") {
		cfg.NoiseScale = v.GetFloat64("voice.piper.noise_scale")
	}
	if v.IsSet("voice.piper.noise_w") {
		cfg.NoiseW = v.GetFloat64("voice.piper.noise_w")
	}
	if v.IsSet("voice.piper.sentence_silence") {
		if d, err := time.ParseDuration(v.GetString("voice.piper.sentence_silence")); err == nil {
			cfg.SentenceSilence = d
		}
	}
	if v.IsSet("voice.piper.timeout") {
		if d, err := time.ParseDuration(v.GetString("voice.piper.timeout")); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

// loadGTTSConfig loads gTTS-specific configuration from Viper.
func loadGTTSConfig(v *viper.Viper) GTTSConfig {
	cfg := DefaultGTTSConfig()

	if v.IsSet("voice.gtts.binary") {
		cfg.Binary = v.GetString("voice.gtts.binary")
	}
	if v.IsSet("voice.gtts.ffmpeg") {
		cfg.FFmpeg = v.GetString("voice.gtts.ffmpeg")
	}
	if v.IsSet("voice.gtts.slow") {
		cfg.Slow = v.GetBool("voice.gtts.slow")
	}
	if v.IsSet("voice.gtts.requests_per_minute") {
		cfg.RequestsPerMinute = v.GetInt("voice.gtts.requests_per_minute")
	}
	if v.IsSet("voice.gtts.timeout") {
		if d, err := time.ParseDuration(v.GetString("voice.gtts.timeout")); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}
