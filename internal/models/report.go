package models

import (
	"time"

	"github.com/lib/pq"
)

// DefaultCategory is assigned when a report is created without a category.
const DefaultCategory = "General"

// Report is the persisted unit combining OCR-extracted text with
// user-editable metadata. OwnerID is set once at creation and never changes;
// every store operation on an existing report filters by id AND owner in a
// single statement so that a foreign id is indistinguishable from a missing
// one.
type Report struct {
	ID            string         `db:"id" json:"id"`
	OwnerID       string         `db:"owner_id" json:"-"`
	Title         string         `db:"title" json:"title"`
	ExtractedText string         `db:"extracted_text" json:"extractedText"`
	ImageURL      *string        `db:"image_url" json:"imageUrl,omitempty"`
	Category      string         `db:"category" json:"category"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// ReportUpdate carries the mutable fields of a report. Nil means "leave
// unchanged"; extracted text and owner are deliberately absent.
type ReportUpdate struct {
	Title    *string
	Category *string
	Tags     *[]string
}
