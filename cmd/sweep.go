package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"circuitsim/pkg/schematic"
	"circuitsim/pkg/snapshot"
	"circuitsim/pkg/solve"
)

var (
	sweepElement string
	sweepFrom    float64
	sweepTo      float64
	sweepSteps   int
	sweepMetric  string
	sweepOut     string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <scene-file>",
	Short: "Sweep one element value and plot a metric against it",
	Long: `Sweep solves the scene repeatedly while stepping one element's value
from --from to --to, and writes a PNG plot of the chosen metric. Metrics:
current (element current, A), brightness (bulb brightness, 0..1),
i_total (source current, A).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		scene, err := schematic.Parse(string(data))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		if scene.FindElement(sweepElement) == nil {
			return fmt.Errorf("element %q not found in scene", sweepElement)
		}
		if sweepSteps < 2 {
			return fmt.Errorf("--steps must be at least 2")
		}

		opts := cfg.Options()
		pts := make(plotter.XYs, 0, sweepSteps)
		step := (sweepTo - sweepFrom) / float64(sweepSteps-1)

		for i := 0; i < sweepSteps; i++ {
			value := sweepFrom + float64(i)*step
			scene.FindElement(sweepElement).Value = value
			snap := solve.Solve(scene, opts)

			y, err := metricValue(snap, sweepElement, sweepMetric)
			if err != nil {
				return err
			}
			pts = append(pts, plotter.XY{X: value, Y: y})
		}

		logger.Info("sweep complete",
			zap.String("element", sweepElement),
			zap.String("metric", sweepMetric),
			zap.Int("steps", sweepSteps))

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s vs %s value", sweepMetric, sweepElement)
		p.X.Label.Text = fmt.Sprintf("%s value", sweepElement)
		p.Y.Label.Text = sweepMetric

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("building plot line: %w", err)
		}
		p.Add(line)
		p.Add(plotter.NewGrid())

		if err := p.Save(6*vg.Inch, 4*vg.Inch, sweepOut); err != nil {
			return fmt.Errorf("writing %s: %w", sweepOut, err)
		}
		fmt.Printf("wrote %s\n", sweepOut)
		return nil
	},
}

func metricValue(snap *snapshot.Snapshot, element, metric string) (float64, error) {
	r := snap.PerElement[element]
	switch metric {
	case "current":
		return r.I, nil
	case "brightness":
		if r.Observables.Brightness == nil {
			return 0, fmt.Errorf("element %q has no brightness; metric applies to bulbs", element)
		}
		return *r.Observables.Brightness, nil
	case "i_total":
		return snap.Totals.ITotal, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", metric)
	}
}

func init() {
	sweepCmd.Flags().StringVar(&sweepElement, "element", "", "element id to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 1, "first swept value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 100, "last swept value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 50, "number of sweep points")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "current", "metric to plot: current, brightness, i_total")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "sweep.png", "output PNG file")
	_ = sweepCmd.MarkFlagRequired("element")
}
