package config

import "errors"

var (
	ErrReadingConfigFile          = errors.New("failed to read config file")
	ErrUnmarshallingConfig        = errors.New("failed to unmarshal config")
	ErrConfigFileMissing          = errors.New("config file not found")
	ErrInvalidProcessCount        = errors.New("execution processCount must be positive")
	ErrInvalidProcessRank         = errors.New("execution processRank must be in [0, processCount)")
	ErrInvalidThreadCount         = errors.New("execution threadCount must be positive")
	ErrMissingRunID               = errors.New("run id is required when several processes cooperate")
	ErrInvalidSamplesPerChunk     = errors.New("run samplesPerChunk must be at least the thread count")
	ErrInvalidPrintEvery          = errors.New("run printEvery must be positive")
	ErrMissingSampler             = errors.New("sampler kind cannot be empty")
	ErrInvalidHistogram           = errors.New("invalid histogram configuration")
	ErrInvalidOutlierLimit        = errors.New("outliers maxRecorded cannot be negative")
	ErrUnknownTransport           = errors.New("unknown transport kind")
	ErrLocalTransportMultiProcess = errors.New("local transport supports a single process only")
	ErrEmptyKafkaBrokers          = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic            = errors.New("kafka topics cannot be empty")
	ErrEmptyKafkaGroupID          = errors.New("kafka groupID cannot be empty")
	ErrUnknownReportFormat        = errors.New("unknown report format")
)
