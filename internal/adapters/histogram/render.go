package histogram

import (
	"fmt"
	"os"
	"path/filepath"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// Render writes one PNG per histogram into dir, named after the histogram
// with prefix prepended. It returns the written paths.
func (r *Registry) Render(dir, prefix string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("histogram: create %s: %w", dir, err)
	}
	var out []string
	for _, name := range r.Names() {
		h, b, ok := r.H1D(name)
		if !ok {
			continue
		}
		p := plot.New()
		p.Title.Text = name
		if b.Title != "" {
			p.Title.Text = b.Title
		}
		p.X.Label.Text = b.XLabel
		p.Y.Label.Text = "Events"

		hh := hplot.NewH1D(h)
		hh.Infos.Style = hplot.HInfoSummary
		p.Add(hh)

		path := filepath.Join(dir, prefix+name+".png")
		if err := p.Save(plotWidth, plotHeight, path); err != nil {
			return out, fmt.Errorf("histogram: render %s: %w", name, err)
		}
		out = append(out, path)
	}
	return out, nil
}
