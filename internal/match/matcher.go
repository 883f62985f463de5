// Package match recommends comparable biodatas for the "similar
// profiles" feature. Scoring is a full scan over same-type candidates;
// profile volume is small enough that no index-assisted pruning is
// needed.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

var (
	// ErrBiodataNotFound indicates the reference biodata does not exist.
	ErrBiodataNotFound = errors.New("biodata not found")
	// ErrInsufficientData indicates the reference biodata's age,
	// height, or weight cannot be parsed to a number.
	ErrInsufficientData = errors.New("invalid biodata values for comparison")
)

// Similarity tolerances, in the units the attributes are stored in.
const (
	ageRange    = 5.0
	heightRange = 0.15
	weightRange = 10.0

	defaultLimit = 3
	minScore     = 2
)

// Criteria echoes the ranges a similarity query matched against.
type Criteria struct {
	BiodataType string
	AgeRange    string
	HeightRange string
	WeightRange string
}

// Service scores and ranks candidate biodatas.
type Service struct {
	biodatas storage.BiodataStore
}

// NewService constructs a matcher over the given biodata store.
func NewService(biodatas storage.BiodataStore) *Service {
	return &Service{biodatas: biodatas}
}

type scored struct {
	biodata models.Biodata
	score   int
	ageDiff float64
}

// FindSimilar returns up to limit biodatas of the same type as the
// reference, ranked by similarity score then by closeness of age.
// Candidates with unparseable demographics are skipped; a reference
// with unparseable demographics is ErrInsufficientData.
func (s *Service) FindSimilar(ctx context.Context, key int64, limit int) ([]models.Biodata, Criteria, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	reference, err := s.biodatas.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, Criteria{}, ErrBiodataNotFound
		}
		return nil, Criteria{}, fmt.Errorf("find biodata: %w", err)
	}

	refAge, okAge := parseNumber(reference.Age)
	refHeight, okHeight := parseNumber(reference.Height)
	refWeight, okWeight := parseNumber(reference.Weight)
	if !okAge || !okHeight || !okWeight {
		return nil, Criteria{}, ErrInsufficientData
	}

	candidates, err := s.biodatas.ListByType(ctx, reference.BiodataType)
	if err != nil {
		return nil, Criteria{}, fmt.Errorf("list candidates: %w", err)
	}

	var matches []scored
	for _, candidate := range candidates {
		if candidate.ID == reference.ID {
			continue
		}
		age, okAge := parseNumber(candidate.Age)
		height, okHeight := parseNumber(candidate.Height)
		weight, okWeight := parseNumber(candidate.Weight)
		if !okAge || !okHeight || !okWeight {
			continue
		}

		ageDiff := math.Abs(age - refAge)
		score := 1 // base point for matching type
		if ageDiff <= ageRange {
			score++
		}
		if math.Abs(height-refHeight) <= heightRange {
			score++
		}
		if math.Abs(weight-refWeight) <= weightRange {
			score++
		}
		if score < minScore {
			continue
		}
		matches = append(matches, scored{biodata: candidate, score: score, ageDiff: ageDiff})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].ageDiff < matches[j].ageDiff
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]models.Biodata, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.biodata)
	}

	criteria := Criteria{
		BiodataType: reference.BiodataType,
		AgeRange:    fmt.Sprintf("%g - %g years", refAge-ageRange, refAge+ageRange),
		HeightRange: fmt.Sprintf("%.2f - %.2f m", refHeight-heightRange, refHeight+heightRange),
		WeightRange: fmt.Sprintf("%g - %g kg", refWeight-weightRange, refWeight+weightRange),
	}
	return results, criteria, nil
}

// parseNumber extracts a finite positive number from a free-form
// attribute string, stripping everything that is not a digit, dot, or
// minus sign first.
func parseNumber(value string) (float64, bool) {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	parsed, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
