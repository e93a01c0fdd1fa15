package patent

import (
	"github.com/turtacn/patentdesk/pkg/types/common"
)

// Event type names. The messaging layer prefixes them to build topic names.
const (
	EventPatentCreated         = "patent.created"
	EventPatentUpdated         = "patent.updated"
	EventPatentDeleted         = "patent.deleted"
	EventPatentStatusChanged   = "patent.status_changed"
	EventPatentReportGenerated = "patent.report_generated"
	EventDocumentUploaded      = "document.uploaded"
	EventDocumentDeleted       = "document.deleted"
)

// PatentEvent is emitted on create, update and delete.
type PatentEvent struct {
	common.BaseEvent
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
	Status  Status `json:"status"`
}

func NewPatentEvent(eventType string, p *Patent) *PatentEvent {
	return &PatentEvent{
		BaseEvent: common.NewBaseEvent(eventType, p.ID.String()),
		OwnerID:   p.OwnerID.String(),
		Title:     p.Title,
		Status:    p.Status,
	}
}

type StatusChangedEvent struct {
	common.BaseEvent
	OwnerID string `json:"owner_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

func NewStatusChangedEvent(p *Patent, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: common.NewBaseEvent(EventPatentStatusChanged, p.ID.String()),
		OwnerID:   p.OwnerID.String(),
		From:      from,
		To:        p.Status,
	}
}

type ReportGeneratedEvent struct {
	common.BaseEvent
	OwnerID         string  `json:"owner_id"`
	SimilarityScore float64 `json:"similarity_score"`
	UniquenessScore float64 `json:"uniqueness_score"`
	ReferenceCount  int     `json:"reference_count"`
}

func NewReportGeneratedEvent(p *Patent, r *SearchReport) *ReportGeneratedEvent {
	return &ReportGeneratedEvent{
		BaseEvent:       common.NewBaseEvent(EventPatentReportGenerated, p.ID.String()),
		OwnerID:         p.OwnerID.String(),
		SimilarityScore: r.SimilarityScore,
		UniquenessScore: UniquenessFromSimilarity(r.SimilarityScore / 100),
		ReferenceCount:  len(r.PriorArtReferences),
	}
}

// DocumentEvent is emitted on upload and delete. The aggregate is the patent.
type DocumentEvent struct {
	common.BaseEvent
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
}

func NewDocumentEvent(eventType string, d *Document) *DocumentEvent {
	return &DocumentEvent{
		BaseEvent:  common.NewBaseEvent(eventType, d.PatentID.String()),
		DocumentID: d.ID.String(),
		Name:       d.Name,
		Size:       d.Size,
	}
}
