package schematic

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Scene text format, one element or wire per line:
//
//	* lamp circuit
//	V1 (0,0) (0,80) 12
//	S1 (0,80) (60,80) on
//	B1 (60,80) (60,0) 6
//	W  (60,0) (0,0)
//
// The leading letter selects the element kind (V battery, R resistor,
// B bulb, S switch, C capacitor, L inductor, W wire). Values accept SPICE
// unit suffixes (1k -> 1000). A switch takes on/off instead of a value.

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGKkmunpf])?$`)
var pointRe = regexp.MustCompile(`^\(([-+]?\d*\.?\d+),([-+]?\d*\.?\d+)\)$`)

// Parse reads a scene from its text form.
func Parse(input string) (*Scene, error) {
	scene := &Scene{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "*") {
			if scene.Title == "" && len(scene.Elements) == 0 && len(scene.Wires) == 0 {
				scene.Title = strings.TrimSpace(strings.TrimPrefix(line, "*"))
			}
			continue
		}
		// Strip trailing comment
		if idx := strings.Index(line, "*"); idx > 0 {
			line = strings.TrimSpace(line[:idx])
		}

		if err := parseLine(scene, seen, line); err != nil {
			return nil, fmt.Errorf("line %d: %v", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return scene, nil
}

func parseLine(scene *Scene, seen map[string]bool, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fmt.Errorf("invalid line format: %s", line)
	}

	a, err := parsePoint(fields[1])
	if err != nil {
		return err
	}
	b, err := parsePoint(fields[2])
	if err != nil {
		return err
	}

	name := fields[0]
	if strings.ToUpper(name) == "W" {
		scene.Wires = append(scene.Wires, Wire{A: a, B: b})
		return nil
	}

	kind, ok := kindLetters[strings.ToUpper(name[:1])]
	if !ok {
		return fmt.Errorf("unknown element prefix: %s", name)
	}
	if seen[name] {
		return fmt.Errorf("duplicate element id: %s", name)
	}
	seen[name] = true

	elem := Element{ID: name, Kind: kind, Terminals: [2]Point{a, b}}

	switch kind {
	case Switch:
		elem.Closed = true
		if len(fields) > 3 {
			switch strings.ToLower(fields[3]) {
			case "on", "closed", "1":
				elem.Closed = true
			case "off", "open", "0":
				elem.Closed = false
			default:
				return fmt.Errorf("invalid switch state %q for %s", fields[3], name)
			}
		}
	default:
		if len(fields) < 4 {
			return fmt.Errorf("missing value for %s", name)
		}
		value, err := ParseValue(fields[3])
		if err != nil {
			return fmt.Errorf("invalid value for %s: %v", name, err)
		}
		elem.Value = value
	}

	scene.Elements = append(scene.Elements, elem)
	return nil
}

func parsePoint(s string) (Point, error) {
	matches := pointRe.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return Point{}, fmt.Errorf("invalid point format: %s", s)
	}
	x, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return Point{}, err
	}
	y, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// ParseValue parses a value with an optional unit factor. 1k -> 1000.
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	if len(matches) > 2 && matches[2] != "" {
		if multiplier, ok := unitMap[matches[2]]; ok {
			num *= multiplier
		}
	}

	return num, nil
}
