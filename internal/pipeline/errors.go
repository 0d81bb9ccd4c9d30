package pipeline

import "errors"

var (
	ErrInvalidKafkaConfig  = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed    = errors.New("failed to fetch message from Kafka")
	ErrKafkaCommitFailed   = errors.New("failed to commit Kafka message")
	ErrKafkaWriteFailed    = errors.New("failed to write message to Kafka")
	ErrPartialRejected     = errors.New("partial aggregate rejected")
	ErrInvalidDriverConfig = errors.New("invalid driver configuration")
	ErrReduceFailed        = errors.New("failed to reduce aggregates")
	ErrSamplerCreation     = errors.New("failed to create sampler")
	ErrGathererCreation    = errors.New("failed to create gatherer")
	ErrSamplingRunFailed   = errors.New("sampling component failed")
	ErrReporterRunFailed   = errors.New("reporter component failed")
)
