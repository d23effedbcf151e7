package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/StackTheCode/invoice-shield/internal/fraud"
	"github.com/StackTheCode/invoice-shield/internal/model"
	"github.com/StackTheCode/invoice-shield/internal/ocr"
	"github.com/StackTheCode/invoice-shield/internal/parser"
	"github.com/StackTheCode/invoice-shield/pkg/config"
	"github.com/StackTheCode/invoice-shield/pkg/database"
	"github.com/StackTheCode/invoice-shield/pkg/logger"
	"github.com/StackTheCode/invoice-shield/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// allowedFileTypes are the upload types the text-extraction step supports
var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"text/plain":      true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// InvoiceHandler serves invoice upload, retrieval and fraud analysis
type InvoiceHandler struct {
	extractor ocr.TextExtractor
	engine    *fraud.Engine
	uploadCfg config.UploadConfig
}

// NewInvoiceHandler creates an invoice handler with its collaborators
func NewInvoiceHandler(extractor ocr.TextExtractor, engine *fraud.Engine, uploadCfg config.UploadConfig) *InvoiceHandler {
	return &InvoiceHandler{
		extractor: extractor,
		engine:    engine,
		uploadCfg: uploadCfg,
	}
}

// Upload stores an invoice file and creates a pending invoice record
func (h *InvoiceHandler) Upload(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInvoiceOperation("upload")

	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	fileHeader, err := c.FormFile("invoice")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No file uploaded"})
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedFileTypes[mimeType] {
		log.Warn("Rejected upload with unsupported type", zap.String("mime_type", mimeType))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid file type. Only PDF, PNG, JPEG and plain text files are allowed",
		})
	}
	if fileHeader.Size > h.uploadCfg.MaxFileSize {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "File too large"})
	}

	if err := os.MkdirAll(h.uploadCfg.Dir, 0o755); err != nil {
		log.Error("Failed to create upload directory", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload invoice"})
	}

	cleanName := unsafeFilenameChars.ReplaceAllString(fileHeader.Filename, "_")
	storedName := fmt.Sprintf("%s_%s", uuid.New().String(), cleanName)
	storedPath := filepath.Join(h.uploadCfg.Dir, storedName)

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload invoice"})
	}
	defer src.Close()

	dst, err := os.Create(storedPath)
	if err != nil {
		log.Error("Failed to store uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload invoice"})
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		log.Error("Failed to write uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload invoice"})
	}

	invoice := model.Invoice{
		CompanyID: companyID,
		FilePath:  storedPath,
		FileSize:  fileHeader.Size,
		FileType:  mimeType,
		Status:    model.InvoiceStatusPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&invoice).Error; err != nil {
		log.Error("Failed to create invoice record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload invoice"})
	}

	log.Info("Invoice uploaded",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("file", storedName),
		zap.Int64("size", fileHeader.Size),
		zap.String("company_id", companyID.String()))
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       invoice.ID,
		"filename": storedName,
		"size":     fileHeader.Size,
		"type":     mimeType,
		"status":   invoice.Status,
	})
}

// Analyze runs text extraction, field parsing and the fraud check battery
// for an uploaded invoice. The risk fields are replaced in a single update;
// a failed run leaves the previous assessment untouched.
func (h *InvoiceHandler) Analyze(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInvoiceOperation("analyze")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}
	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	db := database.GetDB()

	var invoice model.Invoice
	if err := db.Where("id = ? AND company_id = ?", id, companyID).First(&invoice).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	start := time.Now()
	ctx := c.Request().Context()

	extracted, err := h.extractor.ExtractText(ctx, invoice.FilePath, invoice.FileType)
	if err != nil {
		// Input errors fail the whole analysis; no partial record is written
		log.Error("Text extraction failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Failed to extract text from invoice"})
	}

	fields := parser.Parse(extracted.RawText)

	invoice.VendorName = fields.VendorName
	invoice.VendorVAT = fields.VATNumber
	invoice.VendorIBAN = fields.IBAN
	invoice.VendorEmail = fields.Email
	invoice.InvoiceNumber = fields.InvoiceNumber
	invoice.InvoiceDate = fields.InvoiceDate
	invoice.DueDate = fields.DueDate
	invoice.TotalAmount = fields.TotalAmount
	invoice.Currency = fields.Currency
	invoice.OCRConfidence = extracted.Confidence

	// Persist extracted fields before the risk evaluation so the engine's
	// history snapshot sees them
	err = db.Model(&model.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"vendor_name":    invoice.VendorName,
		"vendor_vat":     invoice.VendorVAT,
		"vendor_iban":    invoice.VendorIBAN,
		"vendor_email":   invoice.VendorEmail,
		"invoice_number": invoice.InvoiceNumber,
		"invoice_date":   invoice.InvoiceDate,
		"due_date":       invoice.DueDate,
		"total_amount":   invoice.TotalAmount,
		"currency":       invoice.Currency,
		"ocr_confidence": invoice.OCRConfidence,
	}).Error
	if err != nil {
		log.Error("Failed to persist extracted fields", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to analyze invoice"})
	}

	assessment, err := h.engine.Analyze(ctx, companyID, &invoice)
	if err != nil {
		log.Error("Fraud analysis failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to analyze invoice"})
	}

	duration := time.Since(start)
	analyzedAt := time.Now()

	// The risk fields are written atomically: one update replaces them all
	defer prometheus.TrackDBOperation("update")(time.Now())
	err = db.Model(&model.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"risk_score":         assessment.RiskScore,
		"status":             model.InvoiceStatusAnalyzed,
		"risk_status":        assessment.Status,
		"fraud_indicators":   assessment.Indicators,
		"processing_time_ms": duration.Milliseconds(),
		"analyzed_at":        analyzedAt,
	}).Error
	if err != nil {
		log.Error("Failed to persist risk assessment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to analyze invoice"})
	}

	prometheus.RecordAnalysis(string(assessment.Status), duration)
	for _, indicator := range assessment.Indicators {
		prometheus.RecordIndicator(indicator.Type, string(indicator.Severity))
	}

	invoice.RiskScore = assessment.RiskScore
	invoice.Status = model.InvoiceStatusAnalyzed
	invoice.RiskStatus = assessment.Status
	invoice.FraudIndicators = assessment.Indicators
	invoice.ProcessingTimeMs = duration.Milliseconds()
	invoice.AnalyzedAt = &analyzedAt

	log.Info("Invoice analyzed",
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int("risk_score", assessment.RiskScore),
		zap.String("risk_status", string(assessment.Status)),
		zap.Duration("duration", duration))
	return c.JSON(http.StatusOK, invoice)
}

// List retrieves all invoices for the current company
func (h *InvoiceHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInvoiceOperation("list")

	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	query := database.GetDB().Where("company_id = ?", companyID)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if riskStatus := c.QueryParam("risk_status"); riskStatus != "" {
		query = query.Where("risk_status = ?", riskStatus)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if err := query.Order("created_at desc").Find(&invoices).Error; err != nil {
		log.Error("Failed to retrieve invoices",
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve invoices"})
	}

	return c.JSON(http.StatusOK, echo.Map{"invoices": invoices})
}

// Get retrieves a single invoice for the current company
func (h *InvoiceHandler) Get(c echo.Context) error {
	prometheus.RecordInvoiceOperation("get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}
	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoice model.Invoice
	err = database.GetDB().Where("id = ? AND company_id = ?", id, companyID).First(&invoice).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	return c.JSON(http.StatusOK, invoice)
}

// Delete removes an invoice record and its stored file
func (h *InvoiceHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInvoiceOperation("delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid invoice ID"})
	}
	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	var invoice model.Invoice
	err = database.GetDB().Where("id = ? AND company_id = ?", id, companyID).First(&invoice).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Invoice not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := database.GetDB().Delete(&invoice).Error; err != nil {
		log.Error("Failed to delete invoice",
			zap.String("invoice_id", id.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete invoice"})
	}

	if invoice.FilePath != "" {
		if err := os.Remove(invoice.FilePath); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove invoice file",
				zap.String("file", invoice.FilePath),
				zap.Error(err))
		}
	}

	log.Info("Invoice deleted",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("company_id", companyID.String()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Invoice deleted successfully"})
}
