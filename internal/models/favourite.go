package models

import "time"

// Favourite bookmarks a biodata (by public sequence id) for an account.
type Favourite struct {
	ID           int64     `json:"_id"`
	UserEmail    string    `json:"userEmail"`
	BiodataID    int64     `json:"biodataId"`
	Name         string    `json:"name,omitempty"`
	Occupation   string    `json:"occupation,omitempty"`
	PermanentDiv string    `json:"permanentDivision,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
