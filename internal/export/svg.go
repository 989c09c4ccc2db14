// Package export renders trajectories to static image formats.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/timemarch/internal/dynamo"
)

// Palette colors successive profiles, cycling when there are more rows than
// colors.
var Palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

// ProfilesToSVG draws the interior of each selected row as a polyline over
// cell centers on the unit interval. Rows out of range are skipped; an
// empty string means nothing could be drawn.
func ProfilesToSVG(traj *dynamo.Trajectory, rows []int, width, height int) string {
	var profiles [][]float64
	var labels []string
	for _, r := range rows {
		if r < 0 || r >= traj.Rows() {
			continue
		}
		profiles = append(profiles, traj.Interior(r))
		labels = append(labels, fmt.Sprintf("t=%g", traj.Times()[r]))
	}
	if len(profiles) == 0 {
		return ""
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range profiles {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			minY, maxY = math.Min(minY, v), math.Max(maxY, v)
		}
	}
	if math.IsInf(minY, 1) {
		return ""
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	n := traj.N()
	for i, p := range profiles {
		color := Palette[i%len(Palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, color))
		pen := "M"
		for j, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				pen = "M"
				continue
			}
			x := (float64(j) + 0.5) / float64(n) * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)
			sb.WriteString(fmt.Sprintf("%s%.1f,%.1f ", pen, x, y))
			pen = "L"
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*(i+1), color, labels[i]))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
