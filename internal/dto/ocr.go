package dto

// ExtractResult is returned by POST /ocr/extract. HasText distinguishes a
// readable image with no text from a processing failure, which is an error.
type ExtractResult struct {
	ExtractedText  string  `json:"extractedText"`
	HasText        bool    `json:"hasText"`
	SuggestedTitle string  `json:"suggestedTitle"`
	ImageURL       *string `json:"imageUrl,omitempty"`
}
