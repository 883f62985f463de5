package models

import "time"

// Biodata types.
const (
	TypeMale   = "male"
	TypeFemale = "female"
)

// Premium publication statuses for a biodata.
const (
	PremiumNormal    = "normal"
	PremiumRequested = "requested"
	PremiumApproved  = "premium"
)

// Biodata is a matrimonial profile. Demographic fields are free-form
// strings as entered by the owner; the similarity matcher parses the
// numeric ones on demand. BiodataID is the public sequence number,
// distinct from the internal store key ID.
type Biodata struct {
	ID                int64  `json:"_id"`
	BiodataID         int64  `json:"biodataId"`
	Name              string `json:"name"`
	Photo             string `json:"photo,omitempty"`
	BiodataType       string `json:"biodataType"`
	BirthDate         string `json:"birthDate,omitempty"`
	Height            string `json:"height"`
	Weight            string `json:"weight"`
	Age               string `json:"age"`
	Occupation        string `json:"occupation,omitempty"`
	Race              string `json:"race,omitempty"`
	FatherName        string `json:"fatherName,omitempty"`
	MotherName        string `json:"motherName,omitempty"`
	PermanentDivision string `json:"permanentDivision,omitempty"`
	PresentDivision   string `json:"presentDivision,omitempty"`
	PartnerAge        string `json:"partnerAge,omitempty"`
	PartnerHeight     string `json:"partnerHeight,omitempty"`
	PartnerWeight     string `json:"partnerWeight,omitempty"`
	ContactEmail      string `json:"contactEmail"`
	MobileNumber      string `json:"mobileNumber,omitempty"`
	PremiumStatus     string `json:"premiumStatus"`

	// HasAccess holds account ids (as strings) allowed to view the
	// private contact fields; HasRequest holds account ids with an
	// outstanding access request. An id lives in at most one of the
	// two sets at a time.
	HasAccess  []string `json:"hasAccess"`
	HasRequest []string `json:"hasRequest"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GrantsAccessTo reports whether the given account id is in the
// approved-access set.
func (b Biodata) GrantsAccessTo(accountID string) bool {
	return containsID(b.HasAccess, accountID)
}

// HasRequestFrom reports whether the given account id has an
// outstanding request.
func (b Biodata) HasRequestFrom(accountID string) bool {
	return containsID(b.HasRequest, accountID)
}

func containsID(set []string, id string) bool {
	for _, member := range set {
		if member == id {
			return true
		}
	}
	return false
}
