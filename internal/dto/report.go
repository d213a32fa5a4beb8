package dto

// CreateReportRequest is the POST /reports payload. Category and tags are
// optional and default server-side.
type CreateReportRequest struct {
	Title         string   `json:"title" validate:"required"`
	ExtractedText string   `json:"extractedText" validate:"required"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	ImageURL      *string  `json:"imageUrl"`
}

// UpdateReportRequest is the PATCH /reports/:id payload. Only title,
// category, and tags are mutable; a nil field is left unchanged.
type UpdateReportRequest struct {
	Title    *string   `json:"title"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// CreateReportResponse returns the identifier of a new report.
type CreateReportResponse struct {
	ID string `json:"id"`
}

// DeleteReportResponse acknowledges a successful delete.
type DeleteReportResponse struct {
	Success bool `json:"success"`
}
