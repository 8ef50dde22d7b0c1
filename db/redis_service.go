package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"marksheet-server-go/config"
	"marksheet-server-go/models"
)

const (
	reportInfoPrefix     = "report:" // String: report:{id} -> JSON summary
	reportWorkbookSuffix = ":xlsx"   // String: report:{id}:xlsx -> workbook bytes
)

// RedisService stores finished reports with a TTL
type RedisService struct {
	Client *redis.Client
	TTL    time.Duration
	logger *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisService{
		Client: client,
		TTL:    ttl,
		logger: logger,
	}
}

// Helper to generate report summary key
func getReportInfoKey(id string) string {
	return reportInfoPrefix + id
}

// Helper to generate report workbook key
func getReportWorkbookKey(id string) string {
	return reportInfoPrefix + id + reportWorkbookSuffix
}

// SaveReport stores the summary and workbook of a report. Both keys expire together.
func (s *RedisService) SaveReport(ctx context.Context, report models.StoredReport, workbook []byte) error {
	if report.ID == "" {
		return errors.New("report ID cannot be empty")
	}
	summary, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", report.ID, err)
	}

	pipe := s.Client.TxPipeline()
	pipe.Set(ctx, getReportInfoKey(report.ID), summary, s.TTL)
	pipe.Set(ctx, getReportWorkbookKey(report.ID), workbook, s.TTL)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("Error saving report", zap.String("id", report.ID), zap.Error(err))
		return fmt.Errorf("failed to save report to Redis: %w", err)
	}
	s.logger.Info("Saved report",
		zap.String("id", report.ID),
		zap.String("file", report.Filename),
		zap.Duration("ttl", s.TTL))
	return nil
}

// GetReport returns the summary of a report, or nil if it does not exist or has expired
func (s *RedisService) GetReport(ctx context.Context, id string) (*models.StoredReport, error) {
	data, err := s.Client.Get(ctx, getReportInfoKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not found
		}
		s.logger.Error("Error getting report", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var report models.StoredReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &report, nil
}

// GetWorkbook returns the workbook bytes of a report, or nil if it does not exist or has expired
func (s *RedisService) GetWorkbook(ctx context.Context, id string) ([]byte, error) {
	data, err := s.Client.Get(ctx, getReportWorkbookKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not found
		}
		s.logger.Error("Error getting workbook", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workbook from Redis: %w", err)
	}
	return data, nil
}

// Ping checks the Redis connection
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
