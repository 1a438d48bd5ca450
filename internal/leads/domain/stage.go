// Package domain holds the pure lead-funnel model: stages, the merged Lead
// view entity and the in-memory filter rules. Nothing here touches the
// database or the network.
package domain

import "fmt"

// Stage is one of the seven funnel states a lead moves through toward
// purchase.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageIdentification Stage = "identification"
	StageAwareness      Stage = "awareness"
	StageValidation     Stage = "validation"
	StageNegotiation    Stage = "negotiation"
	StageObjection      Stage = "objection"
	StagePurchase       Stage = "purchase"
)

// External labels as stored in the funnel records.
const (
	labelInitial        = "contato_inicial"
	labelIdentification = "identificacao_problema"
	labelAwareness      = "consciencia_solucao"
	labelValidation     = "validacao_produto"
	labelNegotiation    = "negociacao"
	labelObjection      = "objecao"
	labelPurchase       = "compra"
)

var labelToStage = map[string]Stage{
	labelInitial:        StageInitial,
	labelIdentification: StageIdentification,
	labelAwareness:      StageAwareness,
	labelValidation:     StageValidation,
	labelNegotiation:    StageNegotiation,
	labelObjection:      StageObjection,
	labelPurchase:       StagePurchase,
}

var stageToLabel = map[Stage]string{
	StageInitial:        labelInitial,
	StageIdentification: labelIdentification,
	StageAwareness:      labelAwareness,
	StageValidation:     labelValidation,
	StageNegotiation:    labelNegotiation,
	StageObjection:      labelObjection,
	StagePurchase:       labelPurchase,
}

// Stages lists all funnel stages in order.
var Stages = []Stage{
	StageInitial,
	StageIdentification,
	StageAwareness,
	StageValidation,
	StageNegotiation,
	StageObjection,
	StagePurchase,
}

// StageFromLabel maps an external stage label to the internal stage.
// Unrecognized labels fall back to StageInitial, never an error.
func StageFromLabel(label string) Stage {
	if stage, ok := labelToStage[label]; ok {
		return stage
	}
	return StageInitial
}

// IsValid reports whether s is one of the seven defined stages.
func (s Stage) IsValid() bool {
	_, ok := stageToLabel[s]
	return ok
}

// ExternalLabel is the exact inverse of StageFromLabel for the seven defined
// stages. Calling it with any other value is a programming error and panics;
// there is no meaningful default in this direction.
func (s Stage) ExternalLabel() string {
	label, ok := stageToLabel[s]
	if !ok {
		panic(fmt.Sprintf("domain: unknown stage %q", string(s)))
	}
	return label
}
