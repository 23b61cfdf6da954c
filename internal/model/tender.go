package model

import "time"

// Tender represents one public procurement notice pushed by the scraping
// pipeline. The pipeline owns the content; browsers only ever read it.
//
// The surrogate ID exists for the primary key, but the business identity is
// Code — the official tender reference (e.g. "LIC-2024-0031"). Re-ingesting a
// Code the store already knows refreshes only the AI annotations; everything
// captured at first sight of the tender (title, deadline, CreatedAt) stays
// as originally recorded.
//
// AISummary and AIScore are computed upstream by the pipeline's language
// model pass. The dashboard sorts on AIScore but treats it as opaque — the
// 0–100 range is a pipeline convention, not something this service enforces.
type Tender struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"` // nil when the notice has no close date yet
	AISummary   string     `json:"ai_summary"`
	AIScore     int        `json:"ai_score"`
	Status      string     `json:"status"` // free-form lifecycle label, defaults to "new"
	CreatedAt   time.Time  `json:"created_at"`
}
