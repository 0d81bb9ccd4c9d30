package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/sanspareilsmyn/samplestream/internal/stats"
)

const (
	defaultSamplesPerChunk = 1_000_000
	defaultPrintEvery      = 1
	defaultSeed            = 1
	defaultProcessCount    = 1
	defaultProcessRank     = 0
	defaultThreadCount     = 0 // 0 = runtime.NumCPU()
	defaultHistogramMin    = 0.0
	defaultHistogramSup    = 1000.0
	defaultHistogramBins   = 1000
	defaultOutliersEnabled = true
	defaultOutlierMax      = 10_000
	defaultOutlierPrint    = 20
	defaultTransportKind   = TransportLocal
	defaultPartialsTopic   = "samplestream-partials"
	defaultBarrierTopic    = "samplestream-barrier"
	defaultKafkaGroupID    = "samplestream"
	defaultReportFormat    = ReportText
	defaultMetricsEnabled  = false
	defaultMetricsAddr     = ":9464"
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
	defaultLogFileEnabled  = false
	defaultLogDirectory    = "log"
	defaultLogFilename     = "samplestream.log"
	defaultLogMaxSizeMB    = 100
	defaultLogMaxBackups   = 3
	defaultLogMaxAgeDays   = 7
	defaultLogCompress     = false

	// Environment variable prefix
	envPrefix = "SAMPLESTREAM"
)

const (
	TransportLocal = "local"
	TransportKafka = "kafka"

	ReportText = "text"
	ReportJSON = "json"
)

type Config struct {
	Run       RunConfig             `mapstructure:"run"`
	Execution ExecutionConfig       `mapstructure:"execution"`
	Sampler   SamplerConfig         `mapstructure:"sampler"`
	Histogram stats.HistogramConfig `mapstructure:"histogram"`
	Outliers  OutlierConfig         `mapstructure:"outliers"`
	Transport TransportConfig       `mapstructure:"transport"`
	Report    ReportConfig          `mapstructure:"report"`
	Metrics   MetricsConfig         `mapstructure:"metrics"`
	Alerts    Thresholds            `mapstructure:"alerts"`
	Log       LogConfig             `mapstructure:"log"`
}

type RunConfig struct {
	ID                string `mapstructure:"id"`
	SamplesPerChunk   int    `mapstructure:"samplesPerChunk"`   // per process, per iteration
	TotalSampleBudget uint64 `mapstructure:"totalSampleBudget"` // across all processes, 0 = unlimited
	PrintEvery        int    `mapstructure:"printEvery"`        // iterations between reports
	Seed              uint64 `mapstructure:"seed"`
}

// ExecutionConfig is the execution context handed to the process by its
// launcher, usually through SAMPLESTREAM_EXECUTION_* variables.
type ExecutionConfig struct {
	ProcessCount int `mapstructure:"processCount"`
	ProcessRank  int `mapstructure:"processRank"`
	ThreadCount  int `mapstructure:"threadCount"`
}

// SamplerConfig selects a sampler variant. Only the fields of the chosen kind
// are read.
type SamplerConfig struct {
	Kind         string          `mapstructure:"kind"` // constant, uniform, normal, lognormal, to, gamma, beta, mixture, cdf, sentinel
	Value        float64         `mapstructure:"value"`
	From         float64         `mapstructure:"from"`
	To           float64         `mapstructure:"to"`
	Mean         float64         `mapstructure:"mean"`
	Std          float64         `mapstructure:"std"`
	Low          float64         `mapstructure:"low"`
	High         float64         `mapstructure:"high"`
	Alpha        float64         `mapstructure:"alpha"`
	Beta         float64         `mapstructure:"beta"`
	Rate         float64         `mapstructure:"rate"`
	Distribution string          `mapstructure:"distribution"` // cdf kind: normal, lognormal, exponential, beta
	Weights      []float64       `mapstructure:"weights"`
	Components   []SamplerConfig `mapstructure:"components"`
}

type OutlierConfig struct {
	Enabled     bool `mapstructure:"enabled"`     // false = count only
	MaxRecorded int  `mapstructure:"maxRecorded"` // 0 = unbounded
	PrintLimit  int  `mapstructure:"printLimit"`
}

// Limit converts the configuration into an OutlierBuffer limit.
func (o OutlierConfig) Limit() int {
	if !o.Enabled {
		return -1
	}
	return o.MaxRecorded
}

type TransportConfig struct {
	Kind  string      `mapstructure:"kind"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	PartialsTopic string   `mapstructure:"partialsTopic"`
	BarrierTopic  string   `mapstructure:"barrierTopic"`
	GroupID       string   `mapstructure:"groupID"`
}

type ReportConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"` // rewritten on every report when set
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listenAddr"`
}

type Thresholds struct {
	MeanMin     *float64 `mapstructure:"meanMin"`
	MeanMax     *float64 `mapstructure:"meanMax"`
	StdDevMin   *float64 `mapstructure:"stdDevMin"`
	StdDevMax   *float64 `mapstructure:"stdDevMax"`
	OutlierRate *float64 `mapstructure:"outlierRate"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Coordinator reports whether this process performs the process-level
// reduction and prints the aggregate.
func (e ExecutionConfig) Coordinator() bool { return e.ProcessRank == 0 }

// SamplesPerIteration is the number of samples all processes draw together
// in one iteration.
func (c *Config) SamplesPerIteration() uint64 {
	return uint64(c.Run.SamplesPerChunk) * uint64(c.Execution.ProcessCount)
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	// Read configuration from file (error if mandatory file is missing)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal the configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	applyDerivedDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("run.id", "")
	v.SetDefault("run.samplesPerChunk", defaultSamplesPerChunk)
	v.SetDefault("run.totalSampleBudget", 0)
	v.SetDefault("run.printEvery", defaultPrintEvery)
	v.SetDefault("run.seed", defaultSeed)
	v.SetDefault("execution.processCount", defaultProcessCount)
	v.SetDefault("execution.processRank", defaultProcessRank)
	v.SetDefault("execution.threadCount", defaultThreadCount)
	v.SetDefault("histogram.min", defaultHistogramMin)
	v.SetDefault("histogram.sup", defaultHistogramSup)
	v.SetDefault("histogram.binWidth", 0)
	v.SetDefault("histogram.bins", 0)
	v.SetDefault("outliers.enabled", defaultOutliersEnabled)
	v.SetDefault("outliers.maxRecorded", defaultOutlierMax)
	v.SetDefault("outliers.printLimit", defaultOutlierPrint)
	v.SetDefault("transport.kind", defaultTransportKind)
	v.SetDefault("transport.kafka.brokers", []string{})
	v.SetDefault("transport.kafka.partialsTopic", defaultPartialsTopic)
	v.SetDefault("transport.kafka.barrierTopic", defaultBarrierTopic)
	v.SetDefault("transport.kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("report.format", defaultReportFormat)
	v.SetDefault("report.path", "")
	v.SetDefault("metrics.enabled", defaultMetricsEnabled)
	v.SetDefault("metrics.listenAddr", defaultMetricsAddr)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

// applyDerivedDefaults fills the values that depend on the machine or on
// other settings.
func applyDerivedDefaults(cfg *Config) {
	if cfg.Execution.ThreadCount == 0 {
		cfg.Execution.ThreadCount = runtime.NumCPU()
	}
	if cfg.Run.ID == "" && cfg.Execution.ProcessCount == 1 {
		cfg.Run.ID = uuid.NewString()
	}
	if cfg.Histogram.BinWidth == 0 && cfg.Histogram.Bins == 0 {
		cfg.Histogram.Bins = defaultHistogramBins
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Execution.ProcessCount < 1 {
		return ErrInvalidProcessCount
	}
	if cfg.Execution.ProcessRank < 0 || cfg.Execution.ProcessRank >= cfg.Execution.ProcessCount {
		return fmt.Errorf("%w: rank %d of %d", ErrInvalidProcessRank, cfg.Execution.ProcessRank, cfg.Execution.ProcessCount)
	}
	if cfg.Execution.ThreadCount < 1 {
		return ErrInvalidThreadCount
	}
	if cfg.Run.ID == "" {
		return ErrMissingRunID
	}
	if cfg.Run.SamplesPerChunk < cfg.Execution.ThreadCount {
		return fmt.Errorf("%w: %d samples for %d threads", ErrInvalidSamplesPerChunk, cfg.Run.SamplesPerChunk, cfg.Execution.ThreadCount)
	}
	if cfg.Run.PrintEvery < 1 {
		return ErrInvalidPrintEvery
	}
	if cfg.Sampler.Kind == "" {
		return ErrMissingSampler
	}
	if _, _, err := cfg.Histogram.Normalize(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHistogram, err)
	}
	if cfg.Outliers.MaxRecorded < 0 {
		return ErrInvalidOutlierLimit
	}

	switch cfg.Transport.Kind {
	case TransportLocal:
		if cfg.Execution.ProcessCount > 1 {
			return ErrLocalTransportMultiProcess
		}
	case TransportKafka:
		k := cfg.Transport.Kafka
		if len(k.Brokers) == 0 {
			return ErrEmptyKafkaBrokers
		}
		if k.PartialsTopic == "" || k.BarrierTopic == "" {
			return ErrEmptyKafkaTopic
		}
		if k.GroupID == "" {
			return ErrEmptyKafkaGroupID
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport.Kind)
	}

	switch cfg.Report.Format {
	case ReportText, ReportJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReportFormat, cfg.Report.Format)
	}
	return nil
}
