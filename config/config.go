package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	defaultUploadQueueSize  = 200
	defaultNumUploadWorkers = 4
	defaultImageMaxSize     = 2560
	defaultTaskRetentionMin = 10
)

type Config struct {
	// database path
	DatabasePath string

	// directory where uploads are staged before processing
	TempUploadPath string

	// object storage configuration
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // optional, for minio-style deployments
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string // public base URL blobs are served from
	S3KeyPrefix       string // logical prefix all media keys live under

	// media transform settings
	FFmpegPath     string
	ImageMaxSize   int // longest side after re-encode
	TranscodeVideo bool

	// ingestion worker settings
	UploadQueueSize  int
	NumUploadWorkers int

	// minutes a finished task stays pollable before purge
	TaskRetentionMinutes int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %t. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "photovault.db")

	tempPath := getEnvOrDefault("TEMP_UPLOAD_PATH", filepath.Join(os.TempDir(), "photovault_uploads"))
	absTempPath, err := filepath.Abs(tempPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for temp upload dir '%s': %w", tempPath, err)
	}

	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return Config{}, fmt.Errorf("S3_BUCKET must be set")
	}
	publicBase := os.Getenv("S3_PUBLIC_BASE_URL")
	if publicBase == "" {
		return Config{}, fmt.Errorf("S3_PUBLIC_BASE_URL must be set")
	}

	cfg := Config{
		DatabasePath:         dbPath,
		TempUploadPath:       absTempPath,
		S3Bucket:             bucket,
		S3Region:             getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:           os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:        os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:    os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PublicBaseURL:      publicBase,
		S3KeyPrefix:          getEnvOrDefault("S3_KEY_PREFIX", "images/"),
		FFmpegPath:           getEnvOrDefault("FFMPEG_PATH", "ffmpeg"),
		ImageMaxSize:         getEnvIntOrDefault("IMAGE_MAX_SIZE", defaultImageMaxSize),
		TranscodeVideo:       getEnvBoolOrDefault("TRANSCODE_VIDEO", false),
		UploadQueueSize:      getEnvIntOrDefault("UPLOAD_QUEUE_SIZE", defaultUploadQueueSize),
		NumUploadWorkers:     getEnvIntOrDefault("NUM_UPLOAD_WORKERS", defaultNumUploadWorkers),
		TaskRetentionMinutes: getEnvIntOrDefault("TASK_RETENTION_MINUTES", defaultTaskRetentionMin),
	}

	return cfg, nil
}
