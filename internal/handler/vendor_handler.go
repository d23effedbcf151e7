package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/StackTheCode/invoice-shield/internal/model"
	"github.com/StackTheCode/invoice-shield/pkg/database"
	"github.com/StackTheCode/invoice-shield/pkg/logger"
	"github.com/StackTheCode/invoice-shield/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// VendorRequest defines the structure for vendor creation/update requests
type VendorRequest struct {
	Name      string `json:"name" validate:"required"`
	VATNumber string `json:"vat_number"`
	IBAN      string `json:"iban"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// normalize applies the canonical forms used for matching: VAT uppercased,
// IBAN whitespace-stripped and uppercased.
func (r *VendorRequest) normalize() {
	r.VATNumber = strings.ToUpper(strings.ReplaceAll(r.VATNumber, " ", ""))
	r.IBAN = strings.ToUpper(strings.ReplaceAll(r.IBAN, " ", ""))
}

// CreateVendor adds a trusted vendor to the current company's whitelist
func CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("create")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Vendor name is required"})
	}
	req.normalize()

	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	now := time.Now()
	vendor := model.Vendor{
		CompanyID:        companyID,
		Name:             req.Name,
		VATNumber:        req.VATNumber,
		IBAN:             req.IBAN,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		IsVerified:       true,
		VerificationDate: &now,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&vendor).Error; err != nil {
		log.Error("Failed to create vendor",
			zap.String("name", req.Name),
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to add vendor"})
	}

	log.Info("Vendor added",
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("name", vendor.Name),
		zap.String("company_id", companyID.String()))
	return c.JSON(http.StatusCreated, vendor)
}

// ImportVendors bulk-imports trusted vendors, skipping entries whose VAT id
// already exists for the company
func ImportVendors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("import")

	var reqs []VendorRequest
	if err := c.Bind(&reqs); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	db := database.GetDB()
	now := time.Now()

	imported := 0
	skipped := 0
	for _, req := range reqs {
		if req.Name == "" {
			skipped++
			continue
		}
		req.normalize()

		if req.VATNumber != "" {
			var count int64
			db.Model(&model.Vendor{}).
				Where("company_id = ? AND vat_number = ?", companyID, req.VATNumber).
				Count(&count)
			if count > 0 {
				skipped++
				continue
			}
		}

		vendor := model.Vendor{
			CompanyID:        companyID,
			Name:             req.Name,
			VATNumber:        req.VATNumber,
			IBAN:             req.IBAN,
			Email:            req.Email,
			Phone:            req.Phone,
			Address:          req.Address,
			IsVerified:       true,
			VerificationDate: &now,
		}
		if err := db.Create(&vendor).Error; err != nil {
			log.Warn("Failed to import vendor", zap.String("name", req.Name), zap.Error(err))
			skipped++
			continue
		}
		imported++
	}

	log.Info("Vendor import finished",
		zap.Int("imported", imported),
		zap.Int("skipped", skipped),
		zap.String("company_id", companyID.String()))
	return c.JSON(http.StatusOK, echo.Map{"imported": imported, "skipped": skipped})
}

// ListVendors retrieves all trusted vendors for the current company
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("list")

	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendors []model.Vendor
	err := database.GetDB().
		Where("company_id = ?", companyID).
		Order("created_at asc").
		Limit(limit).
		Offset(offset).
		Find(&vendors).Error
	if err != nil {
		log.Error("Failed to retrieve vendors",
			zap.String("company_id", companyID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve vendors"})
	}

	var total int64
	database.GetDB().Model(&model.Vendor{}).Where("company_id = ?", companyID).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"vendors": vendors,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// GetVendor retrieves a vendor by ID for the current company
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor ID"})
	}
	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendor model.Vendor
	err = database.GetDB().Where("id = ? AND company_id = ?", id, companyID).First(&vendor).Error
	if err != nil {
		log.Warn("Vendor not found or does not belong to company",
			zap.String("vendor_id", id.String()),
			zap.String("company_id", companyID.String()))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	return c.JSON(http.StatusOK, vendor)
}

// UpdateVendor updates an existing trusted vendor for the current company
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("update")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor ID"})
	}
	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	req.normalize()

	var vendor model.Vendor
	err = database.GetDB().Where("id = ? AND company_id = ?", id, companyID).First(&vendor).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	vendor.Name = req.Name
	vendor.VATNumber = req.VATNumber
	vendor.IBAN = req.IBAN
	vendor.Email = req.Email
	vendor.Phone = req.Phone
	vendor.Address = req.Address

	if err := database.GetDB().Save(&vendor).Error; err != nil {
		log.Error("Failed to update vendor",
			zap.String("vendor_id", id.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update vendor"})
	}

	log.Info("Vendor updated",
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("company_id", companyID.String()))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor removes a trusted vendor from the current company's whitelist
func DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid vendor ID"})
	}
	companyID, ok := c.Get("company_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company context required"})
	}

	var vendor model.Vendor
	err = database.GetDB().Where("id = ? AND company_id = ?", id, companyID).First(&vendor).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Vendor not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := database.GetDB().Delete(&vendor).Error; err != nil {
		log.Error("Failed to delete vendor",
			zap.String("vendor_id", id.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete vendor"})
	}

	log.Info("Vendor deleted",
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("company_id", companyID.String()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Vendor deleted successfully"})
}
