package domain

import "testing"

func TestStageFromLabel_KnownLabels(t *testing.T) {
	cases := []struct {
		label string
		want  Stage
	}{
		{"contato_inicial", StageInitial},
		{"identificacao_problema", StageIdentification},
		{"consciencia_solucao", StageAwareness},
		{"validacao_produto", StageValidation},
		{"negociacao", StageNegotiation},
		{"objecao", StageObjection},
		{"compra", StagePurchase},
	}

	for _, tc := range cases {
		if got := StageFromLabel(tc.label); got != tc.want {
			t.Fatalf("StageFromLabel(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestStageFromLabel_UnknownFallsBackToInitial(t *testing.T) {
	for _, label := range []string{"", "unknown", "COMPRA", "compra "} {
		if got := StageFromLabel(label); got != StageInitial {
			t.Fatalf("StageFromLabel(%q) = %q, want %q", label, got, StageInitial)
		}
	}
}

func TestExternalLabel_RoundTrip(t *testing.T) {
	for _, stage := range Stages {
		label := stage.ExternalLabel()
		if got := StageFromLabel(label); got != stage {
			t.Fatalf("round trip for %q went through %q to %q", stage, label, got)
		}
	}
}

func TestExternalLabel_PanicsOnUnknownStage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown stage")
		}
	}()
	_ = Stage("bogus").ExternalLabel()
}

func TestIsValid(t *testing.T) {
	if !StagePurchase.IsValid() {
		t.Fatalf("expected purchase to be valid")
	}
	if Stage("compra").IsValid() {
		t.Fatalf("external label must not be a valid internal stage")
	}
}

func TestIsHotStage(t *testing.T) {
	hot := map[Stage]bool{StageNegotiation: true, StageObjection: true}
	for _, stage := range Stages {
		if got := IsHotStage(stage); got != hot[stage] {
			t.Fatalf("IsHotStage(%q) = %v, want %v", stage, got, hot[stage])
		}
	}
}
