package schematic

import (
	"fmt"
	"math"
	"strings"
)

// Kind identifies a two-terminal element type.
type Kind int

const (
	Battery Kind = iota
	Resistor
	Bulb
	Switch
	Capacitor
	Inductor
)

var kindNames = map[Kind]string{
	Battery:   "battery",
	Resistor:  "resistor",
	Bulb:      "bulb",
	Switch:    "switch",
	Capacitor: "capacitor",
	Inductor:  "inductor",
}

// Letter prefixes used by the scene text format. V/R/B/S/C/L follow the
// SPICE-like convention; W introduces a wire and is handled by the parser.
var kindLetters = map[string]Kind{
	"V": Battery,
	"R": Resistor,
	"B": Bulb,
	"S": Switch,
	"C": Capacitor,
	"L": Inductor,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown element kind: %d", int(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for kind, kn := range kindNames {
		if kn == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown element kind: %q", name)
}

// Point is a position on the editor canvas, in canvas length units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Less orders points by X then Y. Spatial order breaks ties wherever a
// deterministic ordering of coincident geometry is needed.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// Element is a two-terminal circuit element placed on the canvas. Value is
// interpreted per kind: volts for a battery, ohms for a resistor, rated
// watts for a bulb, farads for a capacitor, henries for an inductor. A
// switch ignores Value and uses Closed.
type Element struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Value     float64  `json:"value,omitempty"`
	Closed    bool     `json:"closed,omitempty"`
	Terminals [2]Point `json:"terminals"`
}

// Wire is a zero-resistance connection between two canvas points.
type Wire struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Scene is one immutable editor snapshot handed to the solver. The editor
// owns elements and wires; the solver only reads them.
type Scene struct {
	Title    string    `json:"title,omitempty"`
	Elements []Element `json:"elements"`
	Wires    []Wire    `json:"wires"`
}

// FindElement returns the element with the given id, or nil.
func (s *Scene) FindElement(id string) *Element {
	for i := range s.Elements {
		if s.Elements[i].ID == id {
			return &s.Elements[i]
		}
	}
	return nil
}
