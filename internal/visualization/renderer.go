// Package visualization renders aggregated tables as charts. The image
// format follows the file extension (png, svg, pdf, jpg, eps, tif).
package visualization

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"sort"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/utils"
	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Renderer draws charts to files.
type Renderer struct {
	log    zerolog.Logger
	Width  vg.Length
	Height vg.Length
}

// New returns a Renderer producing 10x6 inch images.
func New(log zerolog.Logger) *Renderer {
	return &Renderer{
		log:    log.With().Str("component", "visualization").Logger(),
		Width:  10 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	r.log.Info().Str("path", path).Msg("chart saved")
	return nil
}

func nonEmpty(op string, t *table.Table) error {
	if t.Len() == 0 {
		return &table.ValueError{Op: op, Param: "table", Value: 0, Reason: "no rows to plot"}
	}
	return nil
}

// BarChart draws one bar per row, labelled by x and sized by y.
func (r *Renderer) BarChart(t *table.Table, x, y, title, path string) error {
	const op = "bar chart"
	if err := table.RequireColumns(op, t, x, y); err != nil {
		return err
	}
	if err := table.RequireNumeric(op, t, y); err != nil {
		return err
	}
	if err := nonEmpty(op, t); err != nil {
		return err
	}
	values := make(plotter.Values, t.Len())
	labels := make([]string, t.Len())
	for i := range values {
		f, _ := t.Value(i, y).Float()
		values[i] = f
		labels[i] = t.Value(i, x).String()
	}
	p := newPlot(title, x, y)
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return r.save(p, path)
}

// LineChart draws y against x, one line per distinct hue value when hue is
// not empty. A time x axis is labelled with dates.
func (r *Renderer) LineChart(t *table.Table, x, y, hue, title, path string) error {
	const op = "line chart"
	cols := []string{x, y}
	if hue != "" {
		cols = append(cols, hue)
	}
	if err := table.RequireColumns(op, t, cols...); err != nil {
		return err
	}
	if err := table.RequireNumeric(op, t, y); err != nil {
		return err
	}
	if err := nonEmpty(op, t); err != nil {
		return err
	}
	timeAxis := t.Kind(x) == table.KindTime
	if !timeAxis {
		if err := table.RequireNumeric(op, t, x); err != nil {
			return err
		}
	}
	point := func(i int) (plotter.XY, bool) {
		yv, ok := t.Value(i, y).Float()
		if !ok {
			return plotter.XY{}, false
		}
		if timeAxis {
			tm, ok := t.Value(i, x).Time()
			return plotter.XY{X: float64(tm.Unix()), Y: yv}, ok
		}
		xv, ok := t.Value(i, x).Float()
		return plotter.XY{X: xv, Y: yv}, ok
	}
	series := func(rows []int) plotter.XYs {
		var pts plotter.XYs
		for _, i := range rows {
			if pt, ok := point(i); ok {
				pts = append(pts, pt)
			}
		}
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		return pts
	}

	p := newPlot(title, x, y)
	if timeAxis {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	}
	p.Add(plotter.NewGrid())
	if hue == "" {
		all := make([]int, t.Len())
		for i := range all {
			all[i] = i
		}
		pts := series(all)
		if len(pts) == 0 {
			return &table.ValueError{Op: op, Param: "table", Value: t.Len(), Reason: "no complete points to plot"}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		line.Width = vg.Points(2)
		line.Color = plotutil.Color(0)
		p.Add(line)
		return r.save(p, path)
	}
	for k, g := range t.GroupBy(hue) {
		pts := series(g.Rows)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		line.Width = vg.Points(2)
		line.Color = plotutil.Color(k)
		p.Add(line)
		p.Legend.Add(g.Key[0].String(), line)
	}
	p.Legend.Top = true
	return r.save(p, path)
}

// Heatmap pivots values by index (rows) and columns and draws the grid.
// Missing cells are 0; repeated (index, column) pairs are summed.
func (r *Renderer) Heatmap(t *table.Table, index, columns, values, title, path string) error {
	const op = "heatmap"
	if err := table.RequireColumns(op, t, index, columns, values); err != nil {
		return err
	}
	if err := table.RequireNumeric(op, t, values); err != nil {
		return err
	}
	g := pivot(t, index, columns, values)
	if len(g.rows) == 0 || len(g.cols) == 0 {
		return &table.ValueError{Op: op, Param: "table", Value: t.Len(), Reason: "no cells to plot"}
	}
	h := plotter.NewHeatMap(g, palette.Heat(12, 1))
	if h.Min == h.Max {
		h.Max = h.Min + 1
	}
	p := newPlot(title, columns, index)
	p.Add(h)
	p.X.Tick.Marker = ticks(g.cols)
	p.Y.Tick.Marker = ticks(g.rows)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	return r.save(p, path)
}

func ticks(labels []string) plot.ConstantTicks {
	out := make(plot.ConstantTicks, len(labels))
	for i, l := range labels {
		out[i] = plot.Tick{Value: float64(i), Label: l}
	}
	return out
}

// grid is a dense pivot implementing plotter.GridXYZ.
type grid struct {
	rows, cols []string
	z          [][]float64 // z[row][col]
}

func (g grid) Dims() (c, r int)   { return len(g.cols), len(g.rows) }
func (g grid) Z(c, r int) float64 { return g.z[r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

func pivot(t *table.Table, index, columns, values string) grid {
	rowGroups := t.GroupBy(index)
	colGroups := t.GroupBy(columns)
	g := grid{}
	rowPos := map[string]int{}
	colPos := map[string]int{}
	for i, rg := range rowGroups {
		g.rows = append(g.rows, rg.Key[0].String())
		rowPos[rg.Key[0].Key()] = i
	}
	for j, cg := range colGroups {
		g.cols = append(g.cols, cg.Key[0].String())
		colPos[cg.Key[0].Key()] = j
	}
	g.z = make([][]float64, len(g.rows))
	for i := range g.z {
		g.z[i] = make([]float64, len(g.cols))
	}
	for i := 0; i < t.Len(); i++ {
		ri, ok1 := rowPos[t.Value(i, index).Key()]
		ci, ok2 := colPos[t.Value(i, columns).Key()]
		v, ok3 := t.Value(i, values).Float()
		if ok1 && ok2 && ok3 {
			g.z[ri][ci] += v
		}
	}
	return g
}
