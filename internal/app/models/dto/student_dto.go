package dto

// CreateStudentRequest represents the payload for creating a student record
type CreateStudentRequest struct {
	Code      string `json:"code" binding:"omitempty,max=20"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"omitempty,max=32"`
	Grade     int    `json:"grade" binding:"required,gt=0"`
	Section   string `json:"section" binding:"omitempty,max=10"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
	Status    string `json:"status" binding:"omitempty,oneof=active inactive pending"`
	UserID    *int64 `json:"userId" binding:"omitempty,gt=0"`
}

// UpdateStudentRequest represents a partial update. Only non-nil fields
// are applied; the rest keep their stored values.
type UpdateStudentRequest struct {
	Code      *string `json:"code" binding:"omitempty,max=20"`
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
	Grade     *int    `json:"grade" binding:"omitempty,gt=0"`
	Section   *string `json:"section" binding:"omitempty,max=10"`
	Address   *string `json:"address"`
	Notes     *string `json:"notes"`
	Status    *string `json:"status"`
	UserID    *int64  `json:"userId" binding:"omitempty,gt=0"`
}
