// Diagnostic tool for inspecting alignment and broadcasting of
// dimension-named arrays described in a JSON file.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ndalign/ndalign"
)

type arraySpec struct {
	Name   string           `json:"name"`
	Dims   []string         `json:"dims"`
	Shape  []int            `json:"shape,omitempty"`
	Data   []float64        `json:"data"`
	Coords map[string][]any `json:"coords,omitempty"`
}

type inputFile struct {
	Arrays []arraySpec `json:"arrays"`
}

var (
	flagJoin    string
	flagFill    float64
	flagExclude []string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:          "ndinspect",
		Short:        "Inspect alignment and broadcasting of dimension-named arrays",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	alignCmd := &cobra.Command{
		Use:   "align <file.json>",
		Short: "Align the arrays in a file and dump the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runAlign,
	}
	alignCmd.Flags().StringVar(&flagJoin, "join", "inner", "join mode (inner|outer|left|right|exact|override)")
	alignCmd.Flags().Float64Var(&flagFill, "fill", 0, "fill value for introduced positions (default NA)")
	alignCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "dimensions excluded from alignment")

	broadcastCmd := &cobra.Command{
		Use:   "broadcast <file.json>",
		Short: "Broadcast the arrays in a file against each other",
		Args:  cobra.ExactArgs(1),
		RunE:  runBroadcast,
	}
	broadcastCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "dimensions excluded from broadcasting")

	root.AddCommand(alignCmd, broadcastCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadArrays(path string) ([]*ndalign.DataArray, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in inputFile
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	arrays := make([]*ndalign.DataArray, 0, len(in.Arrays))
	for _, spec := range in.Arrays {
		v, err := ndalign.NewVariable(spec.Dims, spec.Shape, spec.Data)
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", spec.Name, err)
		}
		coords := make(map[string]any, len(spec.Coords))
		for name, vals := range spec.Coords {
			coords[name] = vals
		}
		arr, err := ndalign.NewDataArray(spec.Name, v, coords)
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", spec.Name, err)
		}
		slog.Debug("loaded array", "name", spec.Name, "dims", spec.Dims, "elements", len(spec.Data))
		arrays = append(arrays, arr)
	}
	return arrays, nil
}

func runAlign(cmd *cobra.Command, args []string) error {
	arrays, err := loadArrays(args[0])
	if err != nil {
		return err
	}
	join, err := ndalign.ParseJoin(flagJoin)
	if err != nil {
		return err
	}

	opts := []ndalign.Option{
		ndalign.WithJoin(join),
		ndalign.WithExcludeDims(flagExclude...),
	}
	if cmd.Flags().Changed("fill") {
		opts = append(opts, ndalign.WithFillValue(flagFill))
	}

	slog.Debug("aligning", "arrays", len(arrays), "join", join.String())
	aligned, err := ndalign.Align(arrays, opts...)
	if err != nil {
		return err
	}
	dumpArrays(aligned)
	return nil
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	arrays, err := loadArrays(args[0])
	if err != nil {
		return err
	}
	slog.Debug("broadcasting", "arrays", len(arrays))
	expanded, err := ndalign.Broadcast(arrays, ndalign.WithExcludeDims(flagExclude...))
	if err != nil {
		return err
	}
	dumpArrays(expanded)
	return nil
}

func dumpArrays(arrays []*ndalign.DataArray) {
	for _, arr := range arrays {
		fmt.Printf("=== %s %v %v ===\n", arr.Name(), arr.Dims(), arr.Variable().Shape())
		spew.Dump(arr.Values())
		for _, cn := range arr.CoordNames() {
			cv, _ := arr.Coord(cn)
			fmt.Printf("  coord %s %v: ", cn, cv.Dims())
			spew.Dump(cv.Values())
		}
	}
}
