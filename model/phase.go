package model

import (
	"fmt"
	"strings"
)

// Phase is one of the fixed stages every flow goes through.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInitialize
	PhaseImport
	PhasePrologue
	PhaseMain
	PhaseEpilogue
	PhaseExport
	PhaseFinalize
	PhaseCleanup
)

var phaseSymbols = [...]string{"setup", "initialize", "import", "prologue", "main", "epilogue", "export", "finalize", "cleanup"}

// Phases returns all phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseSetup, PhaseInitialize, PhaseImport, PhasePrologue, PhaseMain, PhaseEpilogue, PhaseExport, PhaseFinalize, PhaseCleanup}
}

// MainPhases returns the phases run between setup and finalize.
func MainPhases() []Phase {
	return []Phase{PhaseInitialize, PhaseImport, PhasePrologue, PhaseMain, PhaseEpilogue, PhaseExport}
}

// Symbol returns the lower-case phase symbol used in definitions.
func (p Phase) Symbol() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseSymbols[p]
}

func (p Phase) String() string {
	return strings.ToUpper(p.Symbol())
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p >= PhaseSetup && p <= PhaseCleanup
}

// IsLifecycle reports whether the phase runs handler lifecycle jobs instead
// of declared executions.
func (p Phase) IsLifecycle() bool {
	return p == PhaseSetup || p == PhaseCleanup
}

// ParsePhase converts a phase symbol or name (case-insensitive).
func ParsePhase(text string) (Phase, error) {
	symbol := strings.ToLower(strings.TrimSpace(text))
	for i, candidate := range phaseSymbols {
		if candidate == symbol {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, text)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.Symbol()), nil
}

func (p *Phase) UnmarshalText(data []byte) error {
	parsed, err := ParsePhase(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
