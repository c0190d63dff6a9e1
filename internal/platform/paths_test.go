package platform

import "testing"

func TestNormalizePath_Cleans(t *testing.T) {
	got := NormalizePath("/mnt/ssd//docs/../docs")
	if got != "/mnt/ssd/docs" {
		t.Errorf("got %q, want /mnt/ssd/docs", got)
	}
}

func TestValidatePath_RejectsEmpty(t *testing.T) {
	if err := ValidatePath(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestValidatePath_AcceptsOrdinaryPath(t *testing.T) {
	if err := ValidatePath("/home/user/docs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
