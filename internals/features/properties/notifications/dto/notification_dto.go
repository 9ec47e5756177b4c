// internals/features/properties/notifications/dto/notification_dto.go
package dto

import (
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"

	notifModel "propertytools_backend/internals/features/properties/notifications/model"
)

// ChangeRequest is the post-save hook payload.
type ChangeRequest struct {
	IsNew  bool   `json:"is_new"`
	Source string `json:"source" validate:"omitempty,oneof=update import"`
}

type ChangeResponse struct {
	PostID      uint64 `json:"post_id"`
	Queued      bool   `json:"queued"`
	QueueLength int    `json:"queue_length"`
}

type RecipientsRequest struct {
	Recipients string `json:"recipients" validate:"max=5000"`
	Nonce      string `json:"nonce,omitempty"`
}

type RecipientsResponse struct {
	Raw      string   `json:"raw"`
	Resolved []string `json:"resolved"`
	Fallback bool     `json:"fallback"`
}

type CheckResponse struct {
	Processed int `json:"processed"`
}

type TestEmailResponse struct {
	Recipients int `json:"recipients"`
}

// QueueResponse is a read-only view of pending entries.
type QueueResponse struct {
	Length    int            `json:"length"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Entries   datatypes.JSON `json:"entries"`
}

func NewQueueResponse(entries []notifModel.Entry, expires time.Time) (QueueResponse, error) {
	if entries == nil {
		entries = []notifModel.Entry{}
	}
	raw, err := sonic.Marshal(entries)
	if err != nil {
		return QueueResponse{}, err
	}
	out := QueueResponse{Length: len(entries), Entries: datatypes.JSON(raw)}
	if !expires.IsZero() {
		exp := expires.UTC()
		out.ExpiresAt = &exp
	}
	return out, nil
}
