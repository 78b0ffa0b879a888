package session

import (
	"time"

	"docchat-backend/internal/transcripts"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Size       int64      `json:"size"`
	UploadedAt time.Time  `json:"uploadedAt"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	Path       string     `json:"path,omitempty"`
	MimeType   string     `json:"mimeType,omitempty"`
	BackendID  string     `json:"backendId,omitempty"`
	MappingID  string     `json:"mappingId,omitempty"`
	HasHistory bool       `json:"hasChatHistory"`
	LastChatAt *time.Time `json:"lastChatAt,omitempty"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		Type:       string(doc.Type),
		Size:       doc.Size,
		UploadedAt: doc.UploadedAt,
		Status:     string(doc.Status),
		Progress:   doc.Progress,
		Path:       doc.Path,
		MimeType:   doc.MimeType,
		BackendID:  doc.BackendID,
		MappingID:  doc.MappingID,
		HasHistory: doc.HasHistory,
		LastChatAt: doc.LastChatAt,
	}
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toResponse(d))
	}
	return out
}

// MessageResponse is the outward-facing representation of a chat message.
type MessageResponse struct {
	ID        string    `json:"id"`
	MappingID string    `json:"mappingId"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	SentAt    time.Time `json:"sentAt"`
}

func toMessageResponse(msg transcripts.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		MappingID: msg.MappingID,
		Text:      msg.Text,
		Sender:    string(msg.Sender),
		SentAt:    msg.SentAt,
	}
}

func toMessageResponses(msgs []transcripts.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}
