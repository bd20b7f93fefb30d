package kepler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CgCatalog definition.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
	Require []string   `json:"require,omitempty"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItems definition.
type CgItems struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Validate validates a CgTrajectory.
func (t *CgTrajectory) Validate() error {
	if t.Type != "InterpolatedStates" || !strings.HasSuffix(t.Source, "xyzv") {
		return errors.New("only InterpolatedStates are currently supported in Cosmographia trajectory types")
	}
	return nil
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   int       `json:"lineWidth,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	Fade        int       `json:"fade,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// CgInterpolatedState is one record of a Cosmographia xyzv file, in km and km/s.
type CgInterpolatedState struct {
	JD       float64
	Position [3]float64
	Velocity [3]float64
}

// NewCgInterpolatedState converts a sample into a record.
func NewCgInterpolatedState(s Sample) CgInterpolatedState {
	return CgInterpolatedState{EpochToJD(s.Epoch), scale(1e-3, s.State.Position), scale(1e-3, s.State.Velocity)}
}

// FromText initializes from text.
// The `record` parameter must be an array of seven items.
func (i *CgInterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("expected 7 fields, got %d", len(record))
	}
	var vals [7]float64
	for k, field := range record {
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		vals[k] = val
	}
	i.JD = vals[0]
	copy(i.Position[:], vals[1:4])
	copy(i.Velocity[:], vals[4:7])
	return nil
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates parses the content of an xyzv file.
func ParseInterpolatedStates(s string) ([]CgInterpolatedState, error) {
	var states []CgInterpolatedState
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ' '
	r.Comment = '#'
	for {
		record, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		state := CgInterpolatedState{}
		if err := state.FromText(record); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

// ExportConfig configures the exporting of a trajectory.
type ExportConfig struct {
	Filename  string
	OutputDir string
	Cosmo     bool // Cosmographia xyzv files and catalog
	AsCSV     bool
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.Cosmo && !c.AsCSV
}

func (c ExportConfig) path(prefix string, fileNo int, ext string) string {
	name := fmt.Sprintf("%s-%s-%d", prefix, c.Filename, fileNo)
	if c.Timestamp {
		t := time.Now()
		name += fmt.Sprintf("-%d-%02d-%02dT%02d.%02d.%02d", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return filepath.Join(c.OutputDir, name+"."+ext)
}

var csvHeader = []string{"epoch", "jd", "time", "body", "x", "y", "z", "vx", "vy", "vz", "a", "e", "i", "Omega", "omega", "M"}

// segmentFiles are the open files of the current segment.
type segmentFiles struct {
	xyzv   *os.File
	csvF   *os.File
	csvW   *csv.Writer
	item   *CgItems
	first  Sample
	last   Sample
	closed bool
}

func (f *segmentFiles) close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	var errs []error
	end := fmt.Sprintf("\n# Simulation time end (UTC): %s\n", EpochToTime(f.last.Epoch))
	if f.xyzv != nil {
		_, err := f.xyzv.WriteString(end)
		errs = append(errs, err, f.xyzv.Close())
	}
	if f.csvW != nil {
		f.csvW.Flush()
		errs = append(errs, f.csvW.Error(), f.csvF.Close())
	}
	if f.item != nil {
		f.item.EndTime = EpochToTime(f.last.Epoch).String()
		f.item.TrajectoryPlot.Duration = fmt.Sprintf("%d d", int((f.last.Epoch-f.first.Epoch)/DaySeconds+1))
	}
	return errors.Join(errs...)
}

// StreamStates writes the samples received on the channel until it is closed, with one file per
// segment (i.e. every time the body changes). It returns the names of the files written.
// The channel is always drained, even on error.
func StreamStates(conf ExportConfig, system *System, samples <-chan Sample) (files []string, err error) {
	defer func() {
		for range samples {
		}
	}()
	if conf.IsUseless() {
		return nil, nil
	}
	var cur *segmentFiles
	defer func() {
		if err != nil && cur != nil {
			cur.close()
		}
	}()
	var items []*CgItems
	fileNo := 0
	color := []float64{0.6, 1, 1}
	for sample := range samples {
		if cur == nil || !strings.EqualFold(cur.last.Body, sample.Body) {
			if cur != nil {
				if err := cur.close(); err != nil {
					return files, err
				}
			}
			cur = &segmentFiles{first: sample}
			if conf.Cosmo {
				name := conf.path("prop", fileNo, "xyzv")
				if cur.xyzv, err = os.Create(name); err != nil {
					return files, err
				}
				files = append(files, name)
				if _, err := cur.xyzv.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a TDB Julian date
#   Position in km
#   Velocity in km/sec
#   Simulation time start (UTC): %s`, time.Now().UTC(), EpochToTime(sample.Epoch))); err != nil {
					return files, err
				}
				plotColor := append([]float64(nil), color...)
				cur.item = &CgItems{
					Class:           "spacecraft",
					Name:            fmt.Sprintf("%s-%d", conf.Filename, fileNo),
					StartTime:       EpochToTime(sample.Epoch).String(),
					Center:          sample.Body,
					TrajectoryFrame: "EclipticJ2000",
					Trajectory:      &CgTrajectory{Type: "InterpolatedStates", Source: filepath.Base(name)},
					Label:           &CgLabel{Color: plotColor, FadeSize: 1000000, ShowText: true},
					TrajectoryPlot:  &CgTrajectoryPlot{Color: plotColor, LineWidth: 1, Lead: "0 d", SampleCount: 10},
				}
				items = append(items, cur.item)
				// Change the color for the next segment.
				for i := range color {
					color[i] -= 0.2
					if color[i] < 0 {
						color[i]++
					}
				}
			}
			if conf.AsCSV {
				name := conf.path("traj", fileNo, "csv")
				if cur.csvF, err = os.Create(name); err != nil {
					return files, err
				}
				files = append(files, name)
				if _, err := cur.csvF.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Positions in m, velocities in m/s, a in m and angles in degrees.
#   Simulation time start (UTC): %s
`, time.Now().UTC(), EpochToTime(sample.Epoch))); err != nil {
					return files, err
				}
				cur.csvW = csv.NewWriter(cur.csvF)
				if err := cur.csvW.Write(csvHeader); err != nil {
					return files, err
				}
			}
			fileNo++
		}
		cur.last = sample
		if cur.xyzv != nil {
			rec := NewCgInterpolatedState(sample)
			if _, err := cur.xyzv.WriteString("\n" + rec.ToText()); err != nil {
				return files, err
			}
		}
		if cur.csvW != nil {
			record, err := csvRecord(system, sample)
			if err != nil {
				return files, err
			}
			if err := cur.csvW.Write(record); err != nil {
				return files, err
			}
		}
	}
	if cur != nil {
		if err := cur.close(); err != nil {
			return files, err
		}
	}
	if conf.Cosmo && len(items) > 0 {
		name := filepath.Join(conf.OutputDir, fmt.Sprintf("catalog-%s.json", conf.Filename))
		marsh, err := json.Marshal(CgCatalog{Version: "1.0", Name: conf.Filename, Items: items})
		if err != nil {
			return files, err
		}
		if err := os.WriteFile(name, marsh, 0644); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}

// ExportTrajectory writes the trajectory as configured, and returns the names of the files written.
func ExportTrajectory(conf ExportConfig, system *System, traj Trajectory) ([]string, error) {
	samples := make(chan Sample, 64)
	go traj.Stream(samples)
	return StreamStates(conf, system, samples)
}

func csvRecord(system *System, s Sample) ([]string, error) {
	body, err := system.Object(s.Body)
	if err != nil {
		return nil, err
	}
	o := s.State.Elements(body.Mass, s.Epoch)
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	R, V := s.State.Position, s.State.Velocity
	return []string{
		f(s.Epoch), f(EpochToJD(s.Epoch)), EpochToTime(s.Epoch).Format("2006-01-02 15:04:05.000"), body.Name,
		f(R[0]), f(R[1]), f(R[2]), f(V[0]), f(V[1]), f(V[2]),
		f(o.SemiMajorAxis), f(o.Eccentricity), f(Rad2deg(o.Inclination)), f(Rad2deg(o.RAAN)), f(Rad2deg(o.ArgPeriapsis)), f(Rad2deg(o.MeanAnomalyAtEpoch)),
	}, nil
}
