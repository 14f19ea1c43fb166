package ReactingFlow

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ghodss/yaml"

	"github.com/notargets/gocombust/types"
)

const CheckpointFile = "fields.yaml"

type FieldRecord struct {
	Name       string           `json:"name"`
	Dimensions types.Dimensions `json:"dimensions"`
	Values     []float64        `json:"values"`
}

// Checkpoint is the content of one time directory
type Checkpoint struct {
	RunID  string        `json:"runID"`
	Title  string        `json:"title"`
	Time   float64       `json:"time"`
	Index  int           `json:"timeIndex"`
	Fields []FieldRecord `json:"fields"`
}

// Writer emits a checkpoint under Dir every Interval time units
type Writer struct {
	Dir      string
	Interval float64
	next     float64
}

func NewWriter(dir string, interval float64) *Writer {
	return &Writer{Dir: dir, Interval: interval, next: interval}
}

// Due reports whether time t, reached with step dt, crosses the next write time
func (w *Writer) Due(t, dt float64) (due bool) {
	if w.Interval <= 0 {
		return false
	}
	for t >= w.next-1.e-6*dt {
		w.next += w.Interval
		due = true
	}
	return
}

func TimeName(t float64) string {
	return strconv.FormatFloat(t, 'g', 6, 64)
}

func (w *Writer) Write(c *Case) (err error) {
	var (
		rt  = c.Mesh.Time
		dir = filepath.Join(w.Dir, TimeName(rt.Value))
		cp  = Checkpoint{
			RunID: c.RunID.String(),
			Title: c.Title,
			Time:  rt.Value,
			Index: rt.Index,
		}
		b []byte
	)
	for _, name := range c.Fields.Names() {
		f := c.Fields.MustLookup(name)
		cp.Fields = append(cp.Fields, FieldRecord{
			Name:       f.Name,
			Dimensions: f.Dim,
			Values:     append([]float64{}, f.Values...),
		})
	}
	if b, err = yaml.Marshal(cp); err != nil {
		return
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err = os.WriteFile(filepath.Join(dir, CheckpointFile), b, 0644); err != nil {
		return
	}
	c.log.WithField("dir", dir).Debug("wrote fields")
	return
}

func ReadCheckpoint(path string) (cp *Checkpoint, err error) {
	var b []byte
	if b, err = os.ReadFile(path); err != nil {
		return
	}
	cp = &Checkpoint{}
	if err = yaml.Unmarshal(b, cp); err != nil {
		return nil, err
	}
	return
}
