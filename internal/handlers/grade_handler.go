package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/student-records-service/internal/services"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type GradeHandler struct {
	BaseHandler
	gradeService services.GradeService
	importExport services.ImportExportService
	validator    *utils.Validator
}

func NewGradeHandler(
	gradeService services.GradeService,
	importExport services.ImportExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *GradeHandler {
	return &GradeHandler{
		BaseHandler:  NewBaseHandler(logger),
		gradeService: gradeService,
		importExport: importExport,
		validator:    validator,
	}
}

// ListGrades returns grades visible to the caller
// @Summary List grades
// @Description Staff sees all grades; a student sees only their own
// @Tags grades
// @Produce json
// @Success 200 {array} models.Grade
// @Router /grades [get]
func (h *GradeHandler) ListGrades(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	grades, err := h.gradeService.List(c.Request.Context(), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grades)
}

// CreateGrade records a grade
// @Summary Create grade
// @Tags grades
// @Accept json
// @Produce json
// @Param grade body services.CreateGradeRequest true "Grade data"
// @Success 201 {object} models.Grade
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grades [post]
func (h *GradeHandler) CreateGrade(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req services.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	grade, err := h.gradeService.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, grade)
}

// UpdateGrade partially updates a grade
// @Summary Update grade
// @Tags grades
// @Accept json
// @Produce json
// @Param id path uint true "Grade ID"
// @Param grade body services.UpdateGradeRequest true "Fields to update"
// @Success 200 {object} models.Grade
// @Failure 404 {object} ErrorResponse
// @Router /grades/{id} [put]
func (h *GradeHandler) UpdateGrade(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req services.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	grade, err := h.gradeService.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, grade)
}

// DeleteGrade removes a grade
// @Summary Delete grade
// @Tags grades
// @Produce json
// @Param id path uint true "Grade ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /grades/{id} [delete]
func (h *GradeHandler) DeleteGrade(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := h.caller(c)
	if !ok {
		return
	}

	if err := h.gradeService.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Grade deleted"})
}

// ExportGrades streams all grades as a CSV or XLSX download
// @Summary Export grades
// @Tags grades
// @Produce text/csv
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Router /grades/export [get]
func (h *GradeHandler) ExportGrades(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	result, err := h.importExport.ExportGrades(c.Request.Context(), c.Query("format"), caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
