package kepler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// Config is the run configuration of the stitcher and of the exporter.
type Config struct {
	Tolerance float64
	Step      float64 // seconds
	MaxSteps  int
	OutputDir string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{Tolerance: 1e-9, Step: 3600, MaxSteps: 24 * 365, OutputDir: "."}
}

// NewViper returns a viper instance with the defaults set and KEPLER_ prefixed environment
// overrides (e.g. KEPLER_GENERAL_TOLERANCE).
func NewViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("general.tolerance", def.Tolerance)
	v.SetDefault("general.step", def.Step)
	v.SetDefault("general.max_steps", def.MaxSteps)
	v.SetDefault("general.output_path", def.OutputDir)
	v.SetEnvPrefix("kepler")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ConfigFrom reads the run configuration.
func ConfigFrom(v *viper.Viper) (Config, error) {
	conf := Config{
		Tolerance: v.GetFloat64("general.tolerance"),
		Step:      v.GetFloat64("general.step"),
		MaxSteps:  v.GetInt("general.max_steps"),
		OutputDir: v.GetString("general.output_path"),
	}
	if !(conf.Tolerance > 0) {
		return conf, fmt.Errorf("tolerance must be positive, got %g", conf.Tolerance)
	}
	if !(conf.Step > 0) {
		return conf, fmt.Errorf("step must be positive, got %g", conf.Step)
	}
	if conf.MaxSteps <= 0 {
		return conf, fmt.Errorf("max steps must be positive, got %d", conf.MaxSteps)
	}
	return conf, nil
}

// Scenario is a vehicle to stitch through a system.
type Scenario struct {
	Name   string
	System *System
	Body   string // initial body
	State  StateVectors
	Epoch  float64
}

// LoadScenario reads a scenario file (any format viper supports, e.g. TOML) and returns it with
// the run configuration. See ScenarioFrom for the expected keys.
func LoadScenario(path string) (Scenario, Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	conf, err := ConfigFrom(v)
	if err != nil {
		return Scenario{}, conf, err
	}
	sc, err := ScenarioFrom(v)
	return sc, conf, err
}

// ScenarioFrom reads a scenario. Without a `bodies` table, the solar system is used. Each body
// has a name, radius, mass, parent and, unless it is the root, its orbit elements (sma, ecc, and
// inc, RAAN, argPeri, mAnomaly in degrees) with their epoch. The vehicle has a body, an epoch,
// and either a position and velocity or orbit elements. Epochs are either a JDE or a time.
func ScenarioFrom(v *viper.Viper) (Scenario, error) {
	sc := Scenario{Name: v.GetString("vehicle.name")}
	if sc.Name == "" {
		sc.Name = "vehicle"
	}
	if v.IsSet("bodies") {
		var objects []CelestialObject
		for _, name := range sortedKeys(v.GetStringMap("bodies")) {
			key := "bodies." + name
			obj := CelestialObject{
				Name:   v.GetString(key + ".name"),
				Radius: v.GetFloat64(key + ".radius"),
				Mass:   v.GetFloat64(key + ".mass"),
				Parent: v.GetString(key + ".parent"),
			}
			if obj.Name == "" {
				obj.Name = name
			}
			if obj.Parent != "" {
				orbit, err := readElements(v, key+".orbit")
				if err != nil {
					return sc, fmt.Errorf("body %s: %w", obj.Name, err)
				}
				obj.Orbit = orbit
			}
			objects = append(objects, obj)
		}
		sys, err := NewSystem(objects...)
		if err != nil {
			return sc, err
		}
		sc.System = sys
	} else {
		sc.System = SolarSystem()
	}

	sc.Body = v.GetString("vehicle.body")
	central, err := sc.System.Object(sc.Body)
	if err != nil {
		return sc, err
	}
	sc.Epoch, err = ReadEpoch(v, "vehicle.epoch")
	if err != nil {
		return sc, err
	}
	switch {
	case v.IsSet("vehicle.position"):
		R, err := readVector(v, "vehicle.position")
		if err != nil {
			return sc, err
		}
		V, err := readVector(v, "vehicle.velocity")
		if err != nil {
			return sc, err
		}
		sc.State = NewStateVectors(R, V)
	case v.IsSet("vehicle.orbit"):
		orbit, err := readElements(v, "vehicle.orbit")
		if err != nil {
			return sc, err
		}
		tol := v.GetFloat64("general.tolerance")
		if sc.State, err = orbit.StateAtEpoch(central.Mass, sc.Epoch, tol); err != nil {
			return sc, err
		}
	default:
		return sc, errors.New("vehicle needs either a position and velocity or an orbit")
	}
	return sc, nil
}

// ReadEpoch reads an epoch which is either a Julian date or a time (RFC3339 or any format viper
// understands).
func ReadEpoch(v *viper.Viper, key string) (float64, error) {
	if !v.IsSet(key) {
		return 0, fmt.Errorf("%s: missing epoch", key)
	}
	jde := v.GetFloat64(key)
	if jde == 0 {
		dt := v.GetTime(key)
		if dt.IsZero() {
			return 0, fmt.Errorf("%s: %q is neither a JDE nor a time", key, v.GetString(key))
		}
		return EpochFromTime(dt), nil
	}
	return EpochFromJD(jde), nil
}

// ReadTime is ReadEpoch as a time.
func ReadTime(v *viper.Viper, key string) (time.Time, error) {
	epoch, err := ReadEpoch(v, key)
	if err != nil {
		return time.Time{}, err
	}
	return julian.JDToTime(EpochToJD(epoch)), nil
}

func readElements(v *viper.Viper, key string) (KeplerianElements, error) {
	o := KeplerianElements{
		SemiMajorAxis:      v.GetFloat64(key + ".sma"),
		Eccentricity:       v.GetFloat64(key + ".ecc"),
		Inclination:        Deg2rad(v.GetFloat64(key + ".inc")),
		RAAN:               Deg2rad(v.GetFloat64(key + ".RAAN")),
		ArgPeriapsis:       Deg2rad(v.GetFloat64(key + ".argPeri")),
		MeanAnomalyAtEpoch: Deg2rad(v.GetFloat64(key + ".mAnomaly")),
	}
	if !(o.SemiMajorAxis > 0) {
		return o, fmt.Errorf("%s.sma must be positive", key)
	}
	if o.Eccentricity < 0 {
		return o, fmt.Errorf("%s.ecc must not be negative", key)
	}
	if v.IsSet(key + ".epoch") {
		epoch, err := ReadEpoch(v, key+".epoch")
		if err != nil {
			return o, err
		}
		o.Epoch = epoch
	}
	return o, nil
}

func readVector(v *viper.Viper, key string) ([3]float64, error) {
	var vec [3]float64
	raw := v.Get(key)
	items, ok := raw.([]interface{})
	if !ok || len(items) != 3 {
		return vec, fmt.Errorf("%s must be a list of three numbers", key)
	}
	for i, item := range items {
		switch x := item.(type) {
		case float64:
			vec[i] = x
		case int64:
			vec[i] = float64(x)
		case int:
			vec[i] = float64(x)
		default:
			return vec, fmt.Errorf("%s[%d] is not a number", key, i)
		}
	}
	return vec, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
