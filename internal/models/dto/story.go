package dto

import "github.com/soultie/soultie-be/internal/models"

type StoryCreateRequest struct {
	SelfBiodata    string `json:"selfBiodata"`
	PartnerBiodata string `json:"partnerBiodata"`
	CoupleImage    string `json:"coupleImage"`
	MarriageDate   string `json:"marriageDate"`
	Rating         int    `json:"rating"`
	ShortStory     string `json:"shortStory"`
}

type StoryListResponse struct {
	Success    bool                  `json:"success"`
	Data       []models.SuccessStory `json:"data"`
	Pagination StoryPagination       `json:"pagination"`
}

type StoryPagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalStories int64 `json:"totalStories"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
	Limit        int   `json:"limit"`
	Showing      int   `json:"showing"`
}
