package match

import (
	"context"
	"errors"
	"testing"

	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage/memory"
)

func seed(t *testing.T, store *memory.Store, biodataType, age, height, weight string) models.Biodata {
	t.Helper()
	biodata, _, err := store.Biodatas().Upsert(context.Background(), models.Biodata{
		Name:         "candidate-" + age,
		BiodataType:  biodataType,
		Age:          age,
		Height:       height,
		Weight:       weight,
		ContactEmail: age + height + weight + biodataType + "@example.com",
	})
	if err != nil {
		t.Fatalf("seed biodata: %v", err)
	}
	return biodata
}

func TestFindSimilarRanksByScoreThenAge(t *testing.T) {
	store := memory.NewStore()
	service := NewService(store.Biodatas())
	ctx := context.Background()

	reference := seed(t, store, models.TypeFemale, "27", "1.60 m", "55 kg")
	// Score 4: everything within range, age off by 2.
	closest := seed(t, store, models.TypeFemale, "29", "1.65", "60")
	// Score 4 as well, but age off by 4 so it ranks after closest.
	near := seed(t, store, models.TypeFemale, "31", "1.70", "50")
	// Score 3: age out of range.
	older := seed(t, store, models.TypeFemale, "40", "1.60", "55")
	// Score 1: nothing but the type matches. Excluded.
	seed(t, store, models.TypeFemale, "45", "1.90", "90")
	// Different type never appears.
	seed(t, store, models.TypeMale, "27", "1.60", "55")

	results, criteria, err := service.FindSimilar(ctx, reference.ID, 0)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(results))
	}
	if results[0].ID != closest.ID || results[1].ID != near.ID || results[2].ID != older.ID {
		t.Fatalf("unexpected order: %v, %v, %v", results[0].ID, results[1].ID, results[2].ID)
	}

	if criteria.BiodataType != models.TypeFemale {
		t.Fatalf("unexpected criteria type %q", criteria.BiodataType)
	}
	if criteria.AgeRange != "22 - 32 years" {
		t.Fatalf("unexpected age range %q", criteria.AgeRange)
	}
	if criteria.HeightRange != "1.45 - 1.75 m" {
		t.Fatalf("unexpected height range %q", criteria.HeightRange)
	}
	if criteria.WeightRange != "45 - 65 kg" {
		t.Fatalf("unexpected weight range %q", criteria.WeightRange)
	}
}

func TestFindSimilarHonorsLimit(t *testing.T) {
	store := memory.NewStore()
	service := NewService(store.Biodatas())
	ctx := context.Background()

	reference := seed(t, store, models.TypeMale, "30", "1.75", "70")
	for _, age := range []string{"26", "27", "28", "29", "31", "32"} {
		seed(t, store, models.TypeMale, age, "1.75", "70")
	}

	results, _, err := service.FindSimilar(ctx, reference.ID, 0)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if len(results) > 3 {
		t.Fatalf("default limit should cap at 3, got %d", len(results))
	}

	results, _, err = service.FindSimilar(ctx, reference.ID, 2)
	if err != nil {
		t.Fatalf("find similar with limit: %v", err)
	}
	if len(results) > 2 {
		t.Fatalf("explicit limit should cap at 2, got %d", len(results))
	}
}

func TestFindSimilarSkipsUnparseableCandidates(t *testing.T) {
	store := memory.NewStore()
	service := NewService(store.Biodatas())
	ctx := context.Background()

	reference := seed(t, store, models.TypeFemale, "27", "1.60", "55")
	seed(t, store, models.TypeFemale, "unknown", "1.60", "55")
	valid := seed(t, store, models.TypeFemale, "26", "1.62", "54")

	results, _, err := service.FindSimilar(ctx, reference.ID, 0)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if len(results) != 1 || results[0].ID != valid.ID {
		t.Fatalf("expected only the parseable candidate, got %+v", results)
	}
}

func TestFindSimilarErrors(t *testing.T) {
	store := memory.NewStore()
	service := NewService(store.Biodatas())
	ctx := context.Background()

	if _, _, err := service.FindSimilar(ctx, 999, 0); !errors.Is(err, ErrBiodataNotFound) {
		t.Fatalf("expected ErrBiodataNotFound, got %v", err)
	}

	broken := seed(t, store, models.TypeFemale, "n/a", "1.60", "55")
	if _, _, err := service.FindSimilar(ctx, broken.ID, 0); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"27", 27, true},
		{"27 years", 27, true},
		{"1.60 m", 1.60, true},
		{"55kg", 55, true},
		{"", 0, false},
		{"unknown", 0, false},
		{"-5", 0, false},
		{"0", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseNumber(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
