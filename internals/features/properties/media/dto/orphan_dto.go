package dto

import mediaRepo "propertytools_backend/internals/features/properties/media/repository"

type OrphanResponse struct {
	ID     uint64 `json:"id"`
	Title  string `json:"title"`
	GUID   string `json:"guid"`
	Parent uint64 `json:"parent"`
	Author uint64 `json:"author"`
}

type OrphanListResponse struct {
	Total   int              `json:"total"`
	Strict  bool             `json:"strict"`
	Orphans []OrphanResponse `json:"orphans"`
}

func NewOrphanListResponse(rows []mediaRepo.Attachment, strict bool) OrphanListResponse {
	out := make([]OrphanResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, OrphanResponse{ID: r.ID, Title: r.PostTitle, GUID: r.GUID, Parent: r.PostParent, Author: r.PostAuthor})
	}
	return OrphanListResponse{Total: len(out), Strict: strict, Orphans: out}
}
