package main

import (
	"fmt"
	"strconv"

	"github.com/ChristopherRabotin/kepler"
	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
)

func newRootCmd(logger kitlog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kepler",
		Short:        "Two body orbit conversions, propagation and patched conics",
		SilenceUsage: true,
	}
	cmd.AddCommand(stateCmd(), elementsCmd(), propagateCmd(), periodCmd(), soiCmd(), trajectoryCmd(logger))
	return cmd
}

// bodyFlags are the flags which select the central body.
type bodyFlags struct {
	body string
	mass float64
}

func (f *bodyFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&f.body, "body", "b", "Earth", "central body of the solar system")
	c.Flags().Float64VarP(&f.mass, "mass", "m", 0, "central mass in kg (overrides the body)")
}

func (f *bodyFlags) centralMass() (float64, error) {
	if f.mass > 0 {
		return f.mass, nil
	}
	obj, err := kepler.SolarSystem().Object(f.body)
	if err != nil {
		return 0, err
	}
	return obj.Mass, nil
}

func parseFloats(args []string) ([]float64, error) {
	vals := make([]float64, len(args))
	for i, arg := range args {
		val, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals[i] = val
	}
	return vals, nil
}

func stateCmd() *cobra.Command {
	var bf bodyFlags
	var epoch, tolerance float64
	c := &cobra.Command{
		Use:   "state <sma> <ecc> <inc> <RAAN> <argPeri> <mAnomaly> [elements epoch]",
		Short: "State vectors of orbital elements (SI, angles in degrees)",
		Args:  cobra.RangeArgs(6, 7),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, err := parseFloats(args)
			if err != nil {
				return err
			}
			mass, err := bf.centralMass()
			if err != nil {
				return err
			}
			o := kepler.KeplerianElements{
				SemiMajorAxis:      vals[0],
				Eccentricity:       vals[1],
				Inclination:        kepler.Deg2rad(vals[2]),
				RAAN:               kepler.Deg2rad(vals[3]),
				ArgPeriapsis:       kepler.Deg2rad(vals[4]),
				MeanAnomalyAtEpoch: kepler.Deg2rad(vals[5]),
			}
			if len(vals) == 7 {
				o.Epoch = vals[6]
			}
			if !cmd.Flags().Changed("epoch") {
				epoch = o.Epoch
			}
			sv, err := o.StateAtEpoch(mass, epoch, tolerance)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sv)
			return nil
		},
	}
	bf.register(c)
	c.Flags().Float64VarP(&epoch, "epoch", "e", 0, "epoch in seconds past J2000 (defaults to the elements epoch)")
	c.Flags().Float64VarP(&tolerance, "tolerance", "t", 1e-12, "anomaly solver tolerance")
	return c
}

func elementsCmd() *cobra.Command {
	var bf bodyFlags
	var epoch float64
	c := &cobra.Command{
		Use:   "elements <x> <y> <z> <vx> <vy> <vz>",
		Short: "Orbital elements of state vectors (SI)",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, err := parseFloats(args)
			if err != nil {
				return err
			}
			mass, err := bf.centralMass()
			if err != nil {
				return err
			}
			sv := kepler.NewStateVectors([3]float64{vals[0], vals[1], vals[2]}, [3]float64{vals[3], vals[4], vals[5]})
			o := sv.Elements(mass, epoch)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", o, sv.Geometry(mass))
			return nil
		},
	}
	bf.register(c)
	c.Flags().Float64VarP(&epoch, "epoch", "e", 0, "epoch of the state in seconds past J2000")
	return c
}

func propagateCmd() *cobra.Command {
	var bf bodyFlags
	var tolerance float64
	c := &cobra.Command{
		Use:   "propagate <Δt> <x> <y> <z> <vx> <vy> <vz>",
		Short: "Propagate state vectors by Δt seconds (SI)",
		Args:  cobra.ExactArgs(7),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, err := parseFloats(args)
			if err != nil {
				return err
			}
			mass, err := bf.centralMass()
			if err != nil {
				return err
			}
			sv := kepler.NewStateVectors([3]float64{vals[1], vals[2], vals[3]}, [3]float64{vals[4], vals[5], vals[6]})
			next, err := kepler.Propagate(sv, vals[0], mass, tolerance)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		},
	}
	bf.register(c)
	c.Flags().Float64VarP(&tolerance, "tolerance", "t", 1e-9, "universal anomaly tolerance")
	return c
}

func periodCmd() *cobra.Command {
	var bf bodyFlags
	c := &cobra.Command{
		Use:   "period <sma>",
		Short: "Orbital period in seconds of a semi major axis in meters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals, err := parseFloats(args)
			if err != nil {
				return err
			}
			mass, err := bf.centralMass()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%f\n", kepler.Period(vals[0], mass))
			return nil
		},
	}
	bf.register(c)
	return c
}

func soiCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "soi [body...]",
		Short: "Sphere of influence radii of the solar system bodies, in meters",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := kepler.SolarSystem()
			if len(args) == 0 {
				args = sys.Names()
			}
			for _, name := range args {
				soi, err := sys.SOI(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%g\n", name, soi)
			}
			return nil
		},
	}
	return c
}

func trajectoryCmd(logger kitlog.Logger) *cobra.Command {
	var name string
	var cosmo, noCSV, stamped bool
	c := &cobra.Command{
		Use:   "trajectory <scenario file>",
		Short: "Stitch a vehicle through the SOIs of a scenario and export the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, conf, err := kepler.LoadScenario(args[0])
			if err != nil {
				return err
			}
			logger := kitlog.With(logger, "scenario", sc.Name)
			logger.Log("level", "info", "subsys", "cli", "body", sc.Body, "epoch", kepler.EpochToTime(sc.Epoch), "step", conf.Step, "maxSteps", conf.MaxSteps)
			st := kepler.NewStitcher(sc.System, conf.Step, conf.MaxSteps, conf.Tolerance, logger)
			traj, err := st.Run(sc.Body, sc.State, sc.Epoch)
			if err != nil {
				return fmt.Errorf("stitching %s: %w", sc.Name, err)
			}
			if name == "" {
				name = sc.Name
			}
			files, err := kepler.ExportTrajectory(kepler.ExportConfig{Filename: name, OutputDir: conf.OutputDir, Cosmo: cosmo, AsCSV: !noCSV, Timestamp: stamped}, sc.System, traj)
			if err != nil {
				return err
			}
			for _, seg := range traj.Segments {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%f\t%f\t%s\n", seg.Body, seg.Entry, seg.Exit, seg.Transition)
			}
			for _, f := range files {
				logger.Log("level", "info", "subsys", "cli", "file", f)
			}
			return nil
		},
	}
	c.Flags().StringVarP(&name, "name", "n", "", "export file name (defaults to the vehicle name)")
	c.Flags().BoolVar(&cosmo, "cosmo", false, "also export Cosmographia files")
	c.Flags().BoolVar(&noCSV, "no-csv", false, "do not export the CSV files")
	c.Flags().BoolVar(&stamped, "timestamp", false, "timestamp the exported files")
	return c
}
