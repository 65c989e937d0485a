// Package snapshot defines the solver's published output: one atomic,
// consistent set of per-element results, node voltages, totals and
// diagnostics. The JSON field names are part of the external contract.
package snapshot

import (
	"encoding/json"
	"math"
)

// DiagnosticKind classifies a solve problem. Diagnostics never abort a
// publish; the editor decides how to present them.
type DiagnosticKind string

const (
	DanglingTerminal     DiagnosticKind = "DanglingTerminal"
	ShortedElement       DiagnosticKind = "ShortedElement"
	NoSource             DiagnosticKind = "NoSource"
	OpenCircuit          DiagnosticKind = "OpenCircuit"
	NonReducibleTopology DiagnosticKind = "NonReducibleTopology"
	NumericInconsistency DiagnosticKind = "NumericInconsistency"
)

type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Element string         `json:"element,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Observables are the physics-stage fields derived from I, V, P. They are
// kind specific: brightness for bulbs, overloaded for resistors, boostHint
// for batteries.
type Observables struct {
	Brightness *float64 `json:"brightness,omitempty"`
	Overloaded *bool    `json:"overloaded,omitempty"`
	BoostHint  *float64 `json:"boostHint,omitempty"`
}

// ElementResult carries the solved quantities of one element. I is signed,
// positive from terminal 1 to terminal 2. V is the voltage drop magnitude.
type ElementResult struct {
	I           float64     `json:"I"`
	V           float64     `json:"V"`
	P           float64     `json:"P"`
	Observables Observables `json:"observables"`
}

type NodeResult struct {
	Voltage float64 `json:"voltage"`
}

type Totals struct {
	VSrc   float64 `json:"V_src"`
	ITotal float64 `json:"I_total"`
	REq    float64 `json:"R_eq"`
	PTotal float64 `json:"P_total"`
}

// Snapshot is one solver output. Id and Seq are assigned at publish time by
// the recompute controller; a bare Solve leaves them empty.
type Snapshot struct {
	ID          string                   `json:"id,omitempty"`
	Seq         uint64                   `json:"seq,omitempty"`
	PerElement  map[string]ElementResult `json:"perElement"`
	Nodes       map[string]NodeResult    `json:"nodes"`
	Totals      Totals                   `json:"totals"`
	Diagnostics []Diagnostic             `json:"diagnostics"`
}

func New() *Snapshot {
	return &Snapshot{
		PerElement:  make(map[string]ElementResult),
		Nodes:       make(map[string]NodeResult),
		Diagnostics: []Diagnostic{},
	}
}

func (s *Snapshot) AddDiagnostic(kind DiagnosticKind, element, message string) {
	s.Diagnostics = append(s.Diagnostics, Diagnostic{Kind: kind, Element: element, Message: message})
}

func (s *Snapshot) HasDiagnostic(kind DiagnosticKind) bool {
	for _, d := range s.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// MarshalJSON output is the normative serialization used by tests and
// replay tooling.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Tolerances are the per-field absolute deltas under which two snapshots
// count as equal for publish suppression.
type Tolerances struct {
	I          float64
	V          float64
	Brightness float64
}

// EqualWithin reports whether o matches s within the publish tolerances.
// Id and Seq are ignored; diagnostics must match exactly.
func (s *Snapshot) EqualWithin(o *Snapshot, tol Tolerances) bool {
	if o == nil {
		return false
	}
	if len(s.PerElement) != len(o.PerElement) || len(s.Nodes) != len(o.Nodes) {
		return false
	}
	if len(s.Diagnostics) != len(o.Diagnostics) {
		return false
	}
	for i, d := range s.Diagnostics {
		if o.Diagnostics[i] != d {
			return false
		}
	}
	for id, a := range s.PerElement {
		b, ok := o.PerElement[id]
		if !ok {
			return false
		}
		if math.Abs(a.I-b.I) > tol.I || math.Abs(a.V-b.V) > tol.V {
			return false
		}
		if !floatPtrWithin(a.Observables.Brightness, b.Observables.Brightness, tol.Brightness) {
			return false
		}
		if !boolPtrEqual(a.Observables.Overloaded, b.Observables.Overloaded) {
			return false
		}
	}
	for id, a := range s.Nodes {
		b, ok := o.Nodes[id]
		if !ok || math.Abs(a.Voltage-b.Voltage) > tol.V {
			return false
		}
	}
	if math.Abs(s.Totals.ITotal-o.Totals.ITotal) > tol.I {
		return false
	}
	if math.Abs(s.Totals.VSrc-o.Totals.VSrc) > tol.V {
		return false
	}
	return true
}

func floatPtrWithin(a, b *float64, tol float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return math.Abs(*a-*b) <= tol
}

func boolPtrEqual(a, b *bool) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
