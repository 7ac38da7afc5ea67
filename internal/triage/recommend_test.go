package triage

import "testing"

var allDurations = []Duration{"", DurationFewHours, DurationOneDay, DurationTwoToThreeDays, DurationMoreThanThreeDays}

var allCategories = []Category{
	CategoryRespiratory, CategoryInfection, CategoryNeurological,
	CategoryGastro, CategoryGeneralPain, CategoryGeneral,
}

func TestRecommendSelfCare(t *testing.T) {
	for sev := 1; sev <= 7; sev++ {
		for _, d := range allDurations {
			if d == DurationMoreThanThreeDays {
				continue
			}
			if got := Recommend(sev, d, false, CategoryGeneral); got.Tier != TierSelfCare {
				t.Errorf("severity %d duration %q: expected self-care, got %s", sev, d, got.Tier)
			}
		}
	}
}

func TestRecommendTeleconsult(t *testing.T) {
	for sev := 8; sev <= 10; sev++ {
		for _, d := range allDurations {
			if got := Recommend(sev, d, false, CategoryGeneral); got.Tier != TierTeleconsult {
				t.Errorf("severity %d duration %q: expected teleconsult, got %s", sev, d, got.Tier)
			}
		}
	}
	got := Recommend(2, DurationMoreThanThreeDays, false, CategoryGastro)
	if got.Tier != TierTeleconsult {
		t.Errorf("long duration: expected teleconsult, got %s", got.Tier)
	}
	if got.Description != "Medical evaluation within 24 hours is advised." {
		t.Errorf("unexpected description %q", got.Description)
	}
}

func TestRecommendRedFlagAlwaysUrgent(t *testing.T) {
	for sev := 0; sev <= 10; sev++ {
		for _, d := range allDurations {
			for _, c := range allCategories {
				if got := Recommend(sev, d, true, c); got.Tier != TierUrgent {
					t.Fatalf("severity %d duration %q category %s: expected urgent, got %s", sev, d, c, got.Tier)
				}
			}
		}
	}
}

func TestRecommendCategoryDoesNotChangeTier(t *testing.T) {
	for _, c := range allCategories {
		if got := Recommend(5, DurationOneDay, false, c); got.Tier != TierSelfCare {
			t.Errorf("category %s changed tier to %s", c, got.Tier)
		}
	}
}
