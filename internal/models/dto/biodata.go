package dto

import "github.com/soultie/soultie-be/internal/models"

type BiodataUpsertRequest struct {
	Name              string `json:"name"`
	Photo             string `json:"photo"`
	BiodataType       string `json:"biodataType"`
	BirthDate         string `json:"birthDate"`
	Height            string `json:"height"`
	Weight            string `json:"weight"`
	Age               string `json:"age"`
	Occupation        string `json:"occupation"`
	Race              string `json:"race"`
	FatherName        string `json:"fatherName"`
	MotherName        string `json:"motherName"`
	PermanentDivision string `json:"permanentDivision"`
	PresentDivision   string `json:"presentDivision"`
	PartnerAge        string `json:"partnerAge"`
	PartnerHeight     string `json:"partnerHeight"`
	PartnerWeight     string `json:"partnerWeight"`
	ContactEmail      string `json:"contactEmail"`
	MobileNumber      string `json:"mobileNumber"`
}

type BiodataUpsertResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	BiodataID int64  `json:"biodataId"`
	IsNew     bool   `json:"isNew"`
}

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

type BiodataListResponse struct {
	Success    bool             `json:"success"`
	Data       []models.Biodata `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

type FilterOptions struct {
	Divisions    []string   `json:"divisions"`
	Races        []string   `json:"races"`
	Occupations  []string   `json:"occupations"`
	BiodataTypes []string   `json:"biodataTypes"`
	Statuses     []string   `json:"statuses"`
	AgeRanges    []AgeRange `json:"ageRanges"`
}

type AgeRange struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

type SimilarBiodatasResponse struct {
	Success  bool               `json:"success"`
	Data     []models.Biodata   `json:"data"`
	Count    int                `json:"count"`
	Criteria SimilarityCriteria `json:"criteria"`
}

type SimilarityCriteria struct {
	BiodataType string `json:"biodataType"`
	AgeRange    string `json:"ageRange"`
	HeightRange string `json:"heightRange"`
	WeightRange string `json:"weightRange"`
}
