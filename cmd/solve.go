package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"circuitsim/pkg/schematic"
	"circuitsim/pkg/snapshot"
	"circuitsim/pkg/solve"
	"circuitsim/pkg/util"
)

var (
	solveJSON  bool
	solveNodal bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <scene-file>",
	Short: "Solve a scene file and print the snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		scene, err := schematic.Parse(string(data))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		opts := cfg.Options()
		if solveNodal {
			opts.NodalFallback = true
		}

		logger.Info("solving scene",
			zap.String("file", args[0]),
			zap.Int("elements", len(scene.Elements)),
			zap.Int("wires", len(scene.Wires)))

		snap := solve.Solve(scene, opts)

		if solveJSON {
			out, err := snap.JSON()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		printSnapshot(scene, snap)
		return nil
	},
}

func init() {
	solveCmd.Flags().BoolVar(&solveJSON, "json", false, "print the snapshot as JSON")
	solveCmd.Flags().BoolVar(&solveNodal, "nodal", false, "use the full nodal-analysis fallback")
}

func printSnapshot(scene *schematic.Scene, snap *snapshot.Snapshot) {
	if scene.Title != "" {
		fmt.Printf("%s\n\n", scene.Title)
	}

	ids := make([]string, 0, len(snap.PerElement))
	for id := range snap.PerElement {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r := snap.PerElement[id]
		line := fmt.Sprintf("%-4s  I=%-12s V=%-12s P=%-12s",
			id,
			util.FormatValueFactor(r.I, "A"),
			util.FormatValueFactor(r.V, "V"),
			util.FormatValueFactor(r.P, "W"))
		if r.Observables.Brightness != nil {
			line += fmt.Sprintf(" brightness=%.3f", *r.Observables.Brightness)
		}
		if r.Observables.Overloaded != nil && *r.Observables.Overloaded {
			line += " OVERLOADED"
		}
		if r.Observables.BoostHint != nil {
			line += fmt.Sprintf(" boost=%.1fV", *r.Observables.BoostHint)
		}
		fmt.Println(line)
	}

	nodes := make([]string, 0, len(snap.Nodes))
	for n := range snap.Nodes {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	if len(nodes) > 0 {
		fmt.Println()
		for _, n := range nodes {
			fmt.Printf("%-4s  %s\n", n, util.FormatValueFactor(snap.Nodes[n].Voltage, "V"))
		}
	}

	fmt.Printf("\nV_src=%s  I_total=%s  R_eq=%s  P_total=%s\n",
		util.FormatValueFactor(snap.Totals.VSrc, "V"),
		util.FormatValueFactor(snap.Totals.ITotal, "A"),
		util.FormatValueFactor(snap.Totals.REq, "ohm"),
		util.FormatValueFactor(snap.Totals.PTotal, "W"))

	for _, d := range snap.Diagnostics {
		if d.Element != "" {
			fmt.Printf("! %s %s: %s\n", d.Kind, d.Element, d.Message)
		} else {
			fmt.Printf("! %s: %s\n", d.Kind, d.Message)
		}
	}
}
