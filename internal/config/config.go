// Package config loads and validates the single YAML document that
// configures the pipeline: sensor rate, network ingest, channelizer,
// filter, resampler, and ASR parameters. Endpoint URIs are overridable
// through environment variables per the external contract.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// SensorConfig describes the wideband input stream.
type SensorConfig struct {
	SampleRate float64 `mapstructure:"sample_rate" validate:"required,gt=0"`
}

// NetworkRxConfig configures the UDP/TCP burst assembler.
type NetworkRxConfig struct {
	IPAddr         string `mapstructure:"ip_addr" validate:"required"`
	DstPort        int    `mapstructure:"dst_port" validate:"required,gt=0"`
	L4Proto        string `mapstructure:"l4_proto" validate:"required,oneof=udp tcp"`
	BatchSize      int    `mapstructure:"batch_size" validate:"required,gt=0"`
	HeaderBytes    int    `mapstructure:"header_bytes"`
	MaxPayloadSize int    `mapstructure:"max_payload_size" validate:"required,gt=0"`
}

// PktFormatConfig configures the packet formatter.
type PktFormatConfig struct {
	LogPeriod float64 `mapstructure:"log_period" validate:"gte=0"`
}

// ChannelizerConfig configures the frequency-shift filter bank.
type ChannelizerConfig struct {
	NumChannels    int     `mapstructure:"num_channels" validate:"required,gt=0"`
	ChannelSpacing float64 `mapstructure:"channel_spacing" validate:"required,gt=0"`
}

// LowpassFiltConfig configures the per-channel FIR design.
type LowpassFiltConfig struct {
	Cutoff  float64 `mapstructure:"cutoff" validate:"required,gt=0"`
	NumTaps int     `mapstructure:"numtaps" validate:"required,gt=0"`
}

// ResampleConfig configures the polyphase resampler.
type ResampleConfig struct {
	SampleRateOut float64 `mapstructure:"sample_rate_out" validate:"required,gt=0"`
	Gain          float64 `mapstructure:"gain" validate:"required,gt=0"`
}

// RivaConfig configures the streaming ASR session and document export
// thresholds. Named after the original Riva-backed ASR endpoint.
type RivaConfig struct {
	SrcLangCode           string  `mapstructure:"src_lang_code" validate:"required"`
	AutomaticPunctuation  bool    `mapstructure:"automatic_punctuation"`
	VerbatimTranscripts   bool    `mapstructure:"verbatim_transcripts"`
	SampleRate            int     `mapstructure:"sample_rate" validate:"required,gt=0"`
	MinDBExportChars      int     `mapstructure:"min_db_export_chars" validate:"required,gt=0"`
	DBExportTimeoutSec    float64 `mapstructure:"db_export_timeout_sec" validate:"required,gt=0"`
}

// Config is the top-level YAML document.
type Config struct {
	Sensor      SensorConfig      `mapstructure:"sensor" validate:"required"`
	NetworkRx   NetworkRxConfig   `mapstructure:"network_rx" validate:"required"`
	PktFormat   PktFormatConfig   `mapstructure:"pkt_format"`
	Channelizer ChannelizerConfig `mapstructure:"channelizer" validate:"required"`
	LowpassFilt LowpassFiltConfig `mapstructure:"lowpassfilt" validate:"required"`
	Resample    ResampleConfig    `mapstructure:"resample" validate:"required"`
	Riva        RivaConfig        `mapstructure:"riva" validate:"required"`

	// Endpoints, overridable by FRONTEND_URI / DATABASE_URI / ASR_URI / RAG_UUID / SDR_LOG_LEVEL.
	FrontendURI string `mapstructure:"frontend_uri" validate:"required"`
	DatabaseURI string `mapstructure:"database_uri" validate:"required"`
	ASRURI      string `mapstructure:"asr_uri" validate:"required"`
	RAGUUID     string `mapstructure:"rag_uuid" validate:"required"`
	LogLevel    string `mapstructure:"log_level"`
}

// LoadConfig reads the YAML document at path, applies environment overrides,
// and validates the result. It is the one entry point this module builds for
// configuration; CLI flag parsing and multi-file includes are out of scope.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	bindEnvOverrides(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network_rx.header_bytes", 8)
	v.SetDefault("network_rx.l4_proto", "udp")
	v.SetDefault("pkt_format.log_period", 5.0)
	v.SetDefault("resample.sample_rate_out", 16000.0)
	v.SetDefault("resample.gain", 1.0)
	v.SetDefault("riva.sample_rate", 16000)
	v.SetDefault("log_level", "info")
	v.SetDefault("rag_uuid", "")
}

// bindEnvOverrides wires the five endpoint/log-level env vars that override
// the YAML document, matching the external contract in spec.md §6.
func bindEnvOverrides(v *viper.Viper) {
	v.SetEnvPrefix("")
	_ = v.BindEnv("frontend_uri", "FRONTEND_URI")
	_ = v.BindEnv("database_uri", "DATABASE_URI")
	_ = v.BindEnv("asr_uri", "ASR_URI")
	_ = v.BindEnv("rag_uuid", "RAG_UUID")
	_ = v.BindEnv("log_level", "SDR_LOG_LEVEL")
}

// ValidateBandwidth enforces spec.md's startup bandwidth guard:
// (N-1)*spacing + channel_bw <= fs_in/2. channelBW is the occupied bandwidth
// of a single channel, typically 2*cutoff from the lowpass filter config.
func (c *Config) ValidateBandwidth(channelBW float64) error {
	n := float64(c.Channelizer.NumChannels)
	occupied := (n-1)*c.Channelizer.ChannelSpacing + channelBW
	nyquist := c.Sensor.SampleRate / 2
	if occupied > nyquist {
		return fmt.Errorf("config: bandwidth guard violated: (N-1)*spacing+channel_bw=%.1f exceeds fs_in/2=%.1f", occupied, nyquist)
	}
	return nil
}
