package stats

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CellCanvas maps a pixel surface onto a grid of terminal cells. Each cell
// takes the color of the last shape drawn over it.
type CellCanvas struct {
	width, height float64
	cols, rows    int
	cells         [][]string
}

// NewCellCanvas creates a cols x rows grid standing in for a width x height
// pixel surface.
func NewCellCanvas(cols, rows int, width, height float64) *CellCanvas {
	c := &CellCanvas{width: width, height: height, cols: cols, rows: rows} //nolint:exhaustruct // cells set by Clear
	c.Clear()

	return c
}

func (c *CellCanvas) Size() (float64, float64) {
	return c.width, c.height
}

func (c *CellCanvas) Clear() {
	c.cells = make([][]string, c.rows)
	for i := range c.cells {
		c.cells[i] = make([]string, c.cols)
	}
}

func (c *CellCanvas) FillRect(x, y, w, h float64, fill color.Color) {
	if w <= 0 || h <= 0 {
		return
	}

	c0, r0 := c.cell(x, y)
	c1, r1 := c.cell(x+w, y+h)
	hex := Hex(fill)

	// a sliver narrower than a cell still gets one
	c1 = max(c1, c0+1)
	r1 = max(r1, r0+1)

	for r := max(r0, 0); r < min(r1, c.rows); r++ {
		for col := max(c0, 0); col < min(c1, c.cols); col++ {
			c.cells[r][col] = hex
		}
	}
}

func (c *CellCanvas) StrokeRect(x, y, w, h float64, stroke color.Color, lineWidth float64) {
	c.Line(x, y, x+w, y, stroke, lineWidth)
	c.Line(x+w, y, x+w, y+h, stroke, lineWidth)
	c.Line(x+w, y+h, x, y+h, stroke, lineWidth)
	c.Line(x, y+h, x, y, stroke, lineWidth)
}

func (c *CellCanvas) Line(x0, y0, x1, y1 float64, stroke color.Color, _ float64) {
	hex := Hex(stroke)
	ca, ra := c.cell(x0, y0)
	cb, rb := c.cell(x1, y1)
	steps := max(abs(cb-ca), abs(rb-ra))

	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}

		col := int(math.Round(float64(ca) + float64(cb-ca)*t))
		row := int(math.Round(float64(ra) + float64(rb-ra)*t))
		c.set(min(col, c.cols-1), min(row, c.rows-1), hex)
	}
}

// Cell returns the color of a cell as #rrggbb, or "" if nothing covers it.
func (c *CellCanvas) Cell(col, row int) string {
	return c.cells[row][col]
}

// Render draws the grid with one block per covered cell.
func (c *CellCanvas) Render() string {
	var sb strings.Builder

	for r, row := range c.cells {
		if r > 0 {
			sb.WriteString("\n")
		}

		for _, hex := range row {
			if hex == "" {
				sb.WriteString(" ")
				continue
			}

			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("█"))
		}
	}

	return sb.String()
}

func (c *CellCanvas) cell(x, y float64) (int, int) {
	col := int(math.Floor(x / c.width * float64(c.cols)))
	row := int(math.Floor(y / c.height * float64(c.rows)))

	return col, row
}

func (c *CellCanvas) set(col, row int, hex string) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}

	c.cells[row][col] = hex
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
