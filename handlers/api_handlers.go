package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"marksheet-server-go/export"
	"marksheet-server-go/extract"
	"marksheet-server-go/models"
)

// DocumentProcessor runs the marks pipeline over one uploaded document
type DocumentProcessor interface {
	Process(ctx context.Context, filename string, data []byte) (*models.ProcessResult, error)
	Report(filename string, result *models.ProcessResult) (models.StoredReport, []byte, error)
}

// ReportStore keeps finished reports for later download
type ReportStore interface {
	SaveReport(ctx context.Context, report models.StoredReport, workbook []byte) error
	GetReport(ctx context.Context, id string) (*models.StoredReport, error)
	GetWorkbook(ctx context.Context, id string) ([]byte, error)
}

// multipartOverhead is the room left in the request body for boundaries and part headers
const multipartOverhead = 64 << 10

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Processor      DocumentProcessor
	Store          ReportStore // nil disables stored reports
	MaxUploadBytes int64
	logger         *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(processor DocumentProcessor, store ReportStore, maxUploadBytes int64, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		Processor:      processor,
		Store:          store,
		MaxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Register mounts the API routes on r
func (h *APIHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.POST("/marks/export", h.ExportMarks)

		api.POST("/reports", h.CreateReport)
		api.GET("/reports/:id", h.GetReport)
		api.GET("/reports/:id/download", h.DownloadReport)

		api.GET("/ping", PingHandler)
	}
}

// --- Processing Handlers ---

// ExportMarks handles POST /api/marks/export and answers with the workbook itself
func (h *APIHandler) ExportMarks(c *gin.Context) {
	filename, result, ok := h.processUpload(c)
	if !ok {
		return
	}

	_, workbook, err := h.Processor.Report(filename, result)
	if err != nil {
		h.logger.Error("Error building workbook", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build spreadsheet"})
		return
	}

	c.Header("X-Records-Passed", strconv.Itoa(len(result.Bundle.Passed)))
	c.Header("X-Records-Failed", strconv.Itoa(len(result.Bundle.Failed)))
	c.Header("X-Records-Absent", strconv.Itoa(len(result.Bundle.Absent)))
	c.Header("X-Records-Unrecognized", strconv.Itoa(len(result.Unrecognized)))
	sendWorkbook(c, workbook)
}

// CreateReport handles POST /api/reports
func (h *APIHandler) CreateReport(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is disabled; use /api/marks/export"})
		return
	}

	filename, result, ok := h.processUpload(c)
	if !ok {
		return
	}

	report, workbook, err := h.Processor.Report(filename, result)
	if err != nil {
		h.logger.Error("Error building workbook", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build spreadsheet"})
		return
	}
	if err := h.Store.SaveReport(c.Request.Context(), report, workbook); err != nil {
		h.logger.Error("Error in CreateReport handler", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store report"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"report":       report,
		"bundle":       result.Bundle,
		"unrecognized": result.Unrecognized,
	})
}

// --- Report Handlers ---

// GetReport handles GET /api/reports/:id
func (h *APIHandler) GetReport(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is disabled"})
		return
	}
	id := c.Param("id")

	report, err := h.Store.GetReport(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Error in GetReport handler", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found or expired"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// DownloadReport handles GET /api/reports/:id/download
func (h *APIHandler) DownloadReport(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report storage is disabled"})
		return
	}
	id := c.Param("id")

	workbook, err := h.Store.GetWorkbook(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Error in DownloadReport handler", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve spreadsheet"})
		return
	}
	if workbook == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found or expired"})
		return
	}

	sendWorkbook(c, workbook)
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// --- Helpers ---

// processUpload reads the "file" form field and runs it through the pipeline.
// On failure it writes the response and returns ok == false.
func (h *APIHandler) processUpload(c *gin.Context) (string, *models.ProcessResult, bool) {
	if h.MaxUploadBytes > 0 {
		// the limit applies to the file; the body also carries the multipart framing
		bodyLimit := h.MaxUploadBytes + multipartOverhead
		if c.Request.ContentLength > bodyLimit {
			h.rejectTooLarge(c)
			return "", nil, false
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)
	}

	file, header, err := c.Request.FormFile("file") // "file" is the name attribute in the form
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rejectTooLarge(c)
			return "", nil, false
		}
		h.logger.Warn("Error getting form file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return "", nil, false
	}
	defer file.Close()

	if h.MaxUploadBytes > 0 && header.Size > h.MaxUploadBytes {
		h.rejectTooLarge(c)
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("Error reading uploaded file", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading uploaded file: " + err.Error()})
		return "", nil, false
	}

	h.logger.Info("Received file upload", zap.String("file", header.Filename), zap.Int("bytes", len(data)))

	result, err := h.Processor.Process(c.Request.Context(), header.Filename, data)
	if err != nil {
		h.writeProcessError(c, header.Filename, err)
		return "", nil, false
	}
	return header.Filename, result, true
}

func (h *APIHandler) rejectTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds the %d byte upload limit", h.MaxUploadBytes)})
}

func (h *APIHandler) writeProcessError(c *gin.Context, filename string, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		h.logger.Warn("Rejected upload", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error":    "Unsupported file. Please upload a PDF, PNG or JPEG document.",
			"accepted": extract.SupportedExtensions(),
		})
	case errors.Is(err, extract.ErrExtractionFailed):
		h.logger.Warn("Extraction failed", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No text could be extracted from the document. Please check the file."})
	default:
		h.logger.Error("Error processing upload", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document"})
	}
}

func sendWorkbook(c *gin.Context, workbook []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, workbook)
}
