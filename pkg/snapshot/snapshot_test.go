package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFieldNames(t *testing.T) {
	brightness := 0.5
	over := false
	s := New()
	s.ID = "abc"
	s.Seq = 3
	s.PerElement["B1"] = ElementResult{I: 2, V: 12, P: 24, Observables: Observables{Brightness: &brightness}}
	s.PerElement["R1"] = ElementResult{I: 2, V: 10, P: 20, Observables: Observables{Overloaded: &over}}
	s.Nodes["n1"] = NodeResult{Voltage: 0}
	s.Totals = Totals{VSrc: 12, ITotal: 2, REq: 6, PTotal: 24}
	s.AddDiagnostic(OpenCircuit, "", "part of the circuit is not connected")

	data, err := s.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "perElement")
	assert.Contains(t, decoded, "nodes")
	assert.Contains(t, decoded, "totals")
	assert.Contains(t, decoded, "diagnostics")

	totals := decoded["totals"].(map[string]any)
	assert.Contains(t, totals, "V_src")
	assert.Contains(t, totals, "I_total")
	assert.Contains(t, totals, "R_eq")
	assert.Contains(t, totals, "P_total")

	b1 := decoded["perElement"].(map[string]any)["B1"].(map[string]any)
	assert.Contains(t, b1, "I")
	assert.Contains(t, b1, "V")
	assert.Contains(t, b1, "P")
	obs := b1["observables"].(map[string]any)
	assert.Contains(t, obs, "brightness")
	assert.NotContains(t, obs, "overloaded")
	assert.NotContains(t, obs, "boostHint")
}

func TestHasDiagnostic(t *testing.T) {
	s := New()
	assert.False(t, s.HasDiagnostic(NoSource))
	s.AddDiagnostic(NoSource, "", "no battery")
	assert.True(t, s.HasDiagnostic(NoSource))
	assert.False(t, s.HasDiagnostic(OpenCircuit))
}

func TestEqualWithin(t *testing.T) {
	tol := Tolerances{I: 1e-4, V: 1e-4, Brightness: 1e-3}

	base := func() *Snapshot {
		b := 0.5
		s := New()
		s.PerElement["R1"] = ElementResult{I: 2, V: 12, P: 24}
		s.PerElement["B1"] = ElementResult{I: 2, V: 12, P: 24, Observables: Observables{Brightness: &b}}
		s.Nodes["n1"] = NodeResult{Voltage: 12}
		s.Totals = Totals{VSrc: 12, ITotal: 2}
		return s
	}

	a, b := base(), base()
	b.ID = "other"
	b.Seq = 99
	assert.True(t, a.EqualWithin(b, tol), "id and seq are ignored")

	b = base()
	r := b.PerElement["R1"]
	r.I += 5e-5
	b.PerElement["R1"] = r
	assert.True(t, a.EqualWithin(b, tol), "within current tolerance")

	b = base()
	r = b.PerElement["R1"]
	r.I += 1e-2
	b.PerElement["R1"] = r
	assert.False(t, a.EqualWithin(b, tol), "beyond current tolerance")

	b = base()
	br := 0.6
	e := b.PerElement["B1"]
	e.Observables.Brightness = &br
	b.PerElement["B1"] = e
	assert.False(t, a.EqualWithin(b, tol), "brightness moved")

	b = base()
	b.AddDiagnostic(NoSource, "", "x")
	assert.False(t, a.EqualWithin(b, tol), "diagnostics differ")

	b = base()
	b.Nodes["n1"] = NodeResult{Voltage: 13}
	assert.False(t, a.EqualWithin(b, tol), "node voltage moved")

	assert.False(t, a.EqualWithin(nil, tol))
}
