package models

import "time"

// SuccessStory records a married couple by their biodata sequence ids.
// Each biodata may appear in at most one story, in either position.
type SuccessStory struct {
	ID             int64     `json:"_id"`
	SelfBiodata    string    `json:"selfBiodata"`
	PartnerBiodata string    `json:"partnerBiodata"`
	CoupleImage    string    `json:"coupleImage,omitempty"`
	MarriageDate   string    `json:"marriageDate,omitempty"`
	Rating         int       `json:"rating,omitempty"`
	ShortStory     string    `json:"shortStory,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
