// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/app/models/dto"
	"github.com/oguzk/studentdesk/internal/app/services"
	"github.com/oguzk/studentdesk/internal/middleware"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
)

// StudentController handles student record operations
type StudentController struct {
	studentService *services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService *services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		studentService: studentService,
		logger:         logger,
	}
}

func parseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student id").
			WithField("id")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// ListStudents returns students matching the query filters
// @Summary List students
// @Description Returns student records filtered by status, grade and search text, sorted and optionally paginated
// @Tags students
// @Produce json
// @Param status query string false "Status filter (active, inactive, pending, all)"
// @Param grade query int false "Grade filter, 0 matches every grade"
// @Param search query string false "Case-insensitive substring over name, email and code"
// @Param sort query string false "Sort order (name_asc, name_desc, id_asc, id_desc)"
// @Param page query int false "1-based page number"
// @Param limit query int false "Page size"
// @Success 200 {array} models.Student
// @Failure 400 {object} dto.ErrorResponse "Invalid filter parameters"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Security BearerAuth
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	var filter models.StudentFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid student filter")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	students, err := c.studentService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, students)
}

// GetStudent returns a single student by id
// @Summary Get a student
// @Tags students
// @Produce json
// @Param id path int true "Student id"
// @Success 200 {object} models.Student
// @Failure 400 {object} dto.ErrorResponse "Invalid id"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Security BearerAuth
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	student, err := c.studentService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, student)
}

// CreateStudent creates a new student record
// @Summary Create a student
// @Tags students
// @Accept json
// @Produce json
// @Param request body dto.CreateStudentRequest true "Student data"
// @Success 201 {object} models.Student
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 409 {object} dto.ErrorResponse "Student code already exists"
// @Security BearerAuth
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid create student payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	student, err := c.studentService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, student)
}

// UpdateStudent applies a partial update to a student record
// @Summary Update a student
// @Description Applies the supplied fields only; everything else keeps its stored value
// @Tags students
// @Accept json
// @Produce json
// @Param id path int true "Student id"
// @Param request body dto.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} models.Student
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Security BearerAuth
// @Router /students/{id} [patch]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid update student payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	student, err := c.studentService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, student)
}

// DeleteStudent removes a student record
// @Summary Delete a student
// @Tags students
// @Param id path int true "Student id"
// @Success 204 "Student deleted"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Security BearerAuth
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	deleted, err := c.studentService.Delete(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if !deleted {
		middleware.HandleAPIError(ctx, apperrors.ErrStudentNotFound)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetStats returns the derived student counters
// @Summary Student statistics
// @Tags students
// @Produce json
// @Success 200 {object} models.StudentStats
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Security BearerAuth
// @Router /stats [get]
func (c *StudentController) GetStats(ctx *gin.Context) {
	stats, err := c.studentService.Stats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
