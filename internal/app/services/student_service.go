package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/app/models/dto"
	"github.com/oguzk/studentdesk/internal/app/repositories"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
	"github.com/oguzk/studentdesk/internal/pkg/validation"
)

// StudentService handles student record operations
type StudentService struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(store repositories.Store, logger zerolog.Logger) *StudentService {
	return &StudentService{
		store:  store,
		logger: logger,
	}
}

// List returns students matching the filter. Unknown sort values and
// the "all" status are handled by the filter pipeline itself.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	if filter.Status != "" && filter.Status != models.StatusFilterAll && !models.StudentStatus(filter.Status).Valid() {
		return nil, apperrors.NewValidationError("unknown status filter", map[string]interface{}{
			"status": "must be active, inactive, pending or all",
		})
	}

	students, err := s.store.ListStudents(ctx, filter)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []*models.Student{}
	}
	return students, nil
}

// Get returns the student with the given id
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	return s.store.GetStudentByID(ctx, id)
}

// GetByCode returns the student with the given code
func (s *StudentService) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	return s.store.GetStudentByCode(ctx, code)
}

func validateCreate(req *dto.CreateStudentRequest) error {
	fields := map[string]interface{}{}

	if !validation.NewStringValidation(req.FirstName).WithMaxLength(validation.NameMaxLength).Validate() {
		fields["firstName"] = "required"
	}
	if !validation.NewStringValidation(req.LastName).WithMaxLength(validation.NameMaxLength).Validate() {
		fields["lastName"] = "required"
	}
	if !validation.CompiledPatterns.Email.MatchString(req.Email) {
		fields["email"] = "invalid email address"
	}
	if !validation.NewNumericValidation(req.Grade).WithMin(1).Validate() {
		fields["grade"] = "must be a positive number"
	}
	if req.Code != "" && !validation.CompiledPatterns.Code.MatchString(req.Code) {
		fields["code"] = "invalid code format"
	}
	if req.Status != "" && !models.StudentStatus(req.Status).Valid() {
		fields["status"] = "must be active, inactive or pending"
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError("student validation failed", fields)
	}
	return nil
}

// Create inserts a new student record. Status defaults to active and a
// blank code gets a generated one from the backend.
func (s *StudentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*models.Student, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	status := models.StudentStatus(req.Status)
	if status == "" {
		status = models.StatusActive
	}

	student, err := s.store.CreateStudent(ctx, &models.Student{
		Code:      strings.TrimSpace(req.Code),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		Grade:     req.Grade,
		Section:   req.Section,
		Address:   req.Address,
		Notes:     req.Notes,
		Status:    status,
		UserID:    req.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentId", student.ID).Str("code", student.Code).Msg("Student created")
	return student, nil
}

func validateUpdate(req *dto.UpdateStudentRequest) error {
	fields := map[string]interface{}{}

	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) == "" {
		fields["firstName"] = "cannot be empty"
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) == "" {
		fields["lastName"] = "cannot be empty"
	}
	if req.Email != nil && !validation.CompiledPatterns.Email.MatchString(*req.Email) {
		fields["email"] = "invalid email address"
	}
	if req.Grade != nil && *req.Grade < 1 {
		fields["grade"] = "must be a positive number"
	}
	if req.Code != nil && *req.Code != "" && !validation.CompiledPatterns.Code.MatchString(*req.Code) {
		fields["code"] = "invalid code format"
	}

	if len(fields) > 0 {
		return apperrors.NewValidationError("student validation failed", fields)
	}
	return nil
}

// Update applies a partial update. Only supplied fields change; an
// unknown status value in the patch keeps the stored one, matching how
// the web client has always treated that field.
func (s *StudentService) Update(ctx context.Context, id int64, req *dto.UpdateStudentRequest) (*models.Student, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	patch := models.StudentPatch{
		Code:      req.Code,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Grade:     req.Grade,
		Section:   req.Section,
		Address:   req.Address,
		Notes:     req.Notes,
		UserID:    req.UserID,
	}
	if req.Status != nil {
		status := models.StudentStatus(*req.Status)
		patch.Status = &status
	}

	student, err := s.store.UpdateStudent(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentId", id).Msg("Student updated")
	return student, nil
}

// Delete removes the student record, reporting whether it existed
func (s *StudentService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteStudent(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info().Int64("studentId", id).Msg("Student deleted")
	}
	return deleted, nil
}

// Stats returns the derived status counters
func (s *StudentService) Stats(ctx context.Context) (*models.StudentStats, error) {
	return s.store.StudentStats(ctx)
}
