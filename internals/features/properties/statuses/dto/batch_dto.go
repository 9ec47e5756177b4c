package dto

import (
	"strings"

	"propertytools_backend/internals/features/properties/statuses/service"
	"propertytools_backend/internals/helpers/batch"
)

// BatchRequest is the body of draft-batch and delete-batch. Slugs is a comma
// separated es_status slug list; empty means the configured vocabulary.
type BatchRequest struct {
	Page   int    `json:"page" form:"page" validate:"omitempty,min=1"`
	Cursor uint64 `json:"cursor" form:"cursor"`
	Limit  int    `json:"limit" form:"limit" validate:"omitempty,min=1,max=500"`
	Slugs  string `json:"slugs" form:"slugs" validate:"max=2000"`
	Nonce  string `json:"nonce" form:"nonce"`
}

func (r BatchRequest) SlugList() []string {
	out := make([]string, 0)
	for _, s := range strings.Split(r.Slugs, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r BatchRequest) ToService() service.Request {
	return service.Request{Page: r.Page, Cursor: r.Cursor, Limit: r.Limit, Slugs: r.SlugList()}
}

type DraftBatchResponse struct {
	Changed int    `json:"changed"`
	Page    int    `json:"page"`
	HasMore bool   `json:"has_more"`
	Next    *int   `json:"next"`
	Cursor  uint64 `json:"cursor"`
}

type DeleteBatchResponse struct {
	Deleted int    `json:"deleted"`
	Page    int    `json:"page"`
	HasMore bool   `json:"has_more"`
	Next    *int   `json:"next"`
	Cursor  uint64 `json:"cursor"`
}

func NewDraftBatchResponse(res batch.Result) DraftBatchResponse {
	return DraftBatchResponse{Changed: res.Processed, Page: res.Page, HasMore: res.HasMore, Next: res.Next, Cursor: res.Cursor}
}

func NewDeleteBatchResponse(res batch.Result) DeleteBatchResponse {
	return DeleteBatchResponse{Deleted: res.Processed, Page: res.Page, HasMore: res.HasMore, Next: res.Next, Cursor: res.Cursor}
}
