package trajopt

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	kitlog "github.com/go-kit/log"
)

// ExportHeader is the header of exported trajectories.
var ExportHeader = []string{"type", "x_au", "y_au", "z_au", "time"}

// Exporter writes the trajectory of a chromosome, along with the tracked bodies, as CSV.
type Exporter struct {
	conf    Config
	sim     *Simulator
	tracked []CelestialObject
	logger  kitlog.Logger
}

// NewExporter returns a new exporter. The logger may be nil.
func NewExporter(conf Config, eph Ephemeris, logger kitlog.Logger) *Exporter {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Exporter{conf, NewSimulator(conf, eph), conf.tracked(), kitlog.With(logger, "subsys", "export")}
}

// Export re-simulates the chromosome and writes one spacecraft row followed by one row per tracked body
// every ExportEvery steps, starting at launch. Unlike the optimization, the simulation is neither cut
// short nor stopped by a collision, so that the whole mission window can be inspected.
func (x *Exporter) Export(w io.Writer, c Chromosome) error {
	out := csv.NewWriter(w)
	if err := out.Write(ExportHeader); err != nil {
		return err
	}
	rslt, err := x.sim.propagate(c, propagateOpts{
		noEarlyExit:  true,
		noCrashAbort: true,
		sampleEvery:  x.conf.ExportEvery,
		tracked:      x.tracked,
		sample: func(s Sample) error {
			dt := s.DT.UTC().Format(DateTimeFormat)
			if err := out.Write(exportRow("spacecraft", s.Craft, dt)); err != nil {
				return err
			}
			for i, body := range x.tracked {
				if err := out.Write(exportRow(body.key(), s.Bodies[i], dt)); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return err
	}
	x.logger.Log("level", "info", "status", "exported", "steps", rslt.Steps, "result", rslt)
	return nil
}

func exportRow(name string, pos Vector2, dt string) []string {
	return []string{
		name,
		strconv.FormatFloat(pos.X, 'f', 9, 64),
		strconv.FormatFloat(pos.Y, 'f', 9, 64),
		"0",
		dt,
	}
}

// ExportFile exports the chromosome to the provided path. Errors only concern the file: the chromosome
// itself remains a valid optimization result.
func (x *Exporter) ExportFile(path string, c Chromosome) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	x.logger.Log("level", "notice", "file", path)
	return x.Export(f, c)
}

// OutputPath returns the path of an output file in dir, optionally timestamped.
func OutputPath(dir, prefix, kind, ext string, stamped bool) string {
	name := fmt.Sprintf("%s-%s", prefix, kind)
	if stamped {
		t := time.Now().UTC()
		name = fmt.Sprintf("%s-%d-%02d-%02dT%02d.%02d.%02d", name, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return filepath.Join(dir, name+"."+ext)
}
