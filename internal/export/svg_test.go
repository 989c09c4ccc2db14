package export

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/timemarch/internal/dynamo"
)

func trajectory(t *testing.T) *dynamo.Trajectory {
	t.Helper()
	traj, err := dynamo.FromStates([]float64{0, 0.5}, []dynamo.State{
		{0, 0, 1, 0, 0},
		{0, 0.2, math.NaN(), 0.2, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	return traj
}

func TestProfilesToSVG(t *testing.T) {
	svg := ProfilesToSVG(trajectory(t), []int{0, 1, 5}, 300, 100)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected 2 paths, got %d", got)
	}
	for _, label := range []string{"t=0", "t=0.5"} {
		if !strings.Contains(svg, label) {
			t.Errorf("missing label %q", label)
		}
	}
	// The NaN cell breaks the second polyline into two pieces.
	second := svg[strings.LastIndex(svg, "<path"):]
	if strings.Count(second[:strings.Index(second, "/>")], "M") != 2 {
		t.Errorf("expected the NaN to restart the path: %s", second)
	}
	if strings.Contains(svg, "NaN") {
		t.Error("NaN leaked into coordinates")
	}
}

func TestProfilesToSVG_Empty(t *testing.T) {
	if svg := ProfilesToSVG(trajectory(t), []int{-1, 9}, 300, 100); svg != "" {
		t.Errorf("expected empty output, got %q", svg)
	}
}
