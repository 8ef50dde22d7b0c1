package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"marksheet-server-go/config"
	"marksheet-server-go/db"
	"marksheet-server-go/extract"
	"marksheet-server-go/extract/mupdf"
	"marksheet-server-go/extract/tesseract"
	"marksheet-server-go/handlers"
	"marksheet-server-go/logging"
	"marksheet-server-go/marks"
	"marksheet-server-go/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Record pattern
	extractor := marks.DefaultExtractor()
	if cfg.RecordPattern != "" {
		extractor, err = marks.NewExtractor(cfg.RecordPattern)
		if err != nil {
			logger.Fatal("Invalid record pattern", zap.Error(err))
		}
	}
	logger.Info("Using record pattern", zap.String("pattern", extractor.Pattern()))

	// Text sources: MuPDF for text layers and rasterizing, Tesseract for OCR
	pdfReader := mupdf.NewReader(cfg.OCR.DPI)
	ocr := tesseract.NewEngine(cfg.OCR.Languages...)
	source := extract.NewSource(pdfReader, pdfReader, ocr, logger)

	processor := service.NewProcessor(source, extractor, logger)

	// Stored reports are optional; the one-shot export works without Redis
	var store handlers.ReportStore
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := db.InitializeRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Successfully connected to Redis", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		store = db.NewRedisService(redisClient, cfg.Redis.ReportTTL, logger)
	} else {
		logger.Info("REDIS_ADDR not set, stored reports disabled")
	}

	apiHandler := handlers.NewAPIHandler(processor, store, cfg.MaxUploadBytes(), logger)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(logging.Middleware(logger), gin.Recovery())
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	apiHandler.Register(router)

	logger.Info("Starting server", zap.String("addr", cfg.Addr()))
	if err := router.Run(cfg.Addr()); err != nil {
		logger.Fatal("Failed to run server", zap.Error(err))
	}
}
