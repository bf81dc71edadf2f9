package dto

type RecordAuditRequest struct {
	Action      string `json:"action"      validate:"required,min=3,max=60"`
	Description string `json:"description" validate:"required,min=3"`
}

type AuditLogResponse struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	PerformedBy string `json:"performed_by"`
	Timestamp   string `json:"timestamp"`
}
