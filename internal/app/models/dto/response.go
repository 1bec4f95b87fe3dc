package dto

// SuccessResponse represents a standard success response for API endpoints
// that have no payload to return
type SuccessResponse struct {
	Message string `json:"message"`
}
