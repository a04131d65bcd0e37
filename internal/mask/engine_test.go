package mask

import (
	"errors"
	"fmt"
	"image"
	"math"
	"testing"

	"magiceraser/internal/domain"
	"magiceraser/internal/raster"
)

func newEngine(t *testing.T, w, h, brush int) *Engine {
	t.Helper()
	surface, err := raster.NewGGSurface(w, h)
	if err != nil {
		t.Fatalf("new surface: %v", err)
	}
	e, err := NewEngine(surface, brush)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

// components counts 4-connected regions of painted pixels.
func components(img *image.RGBA) int {
	b := img.Bounds()
	seen := make([]bool, b.Dx()*b.Dy())
	idx := func(x, y int) int { return (y-b.Min.Y)*b.Dx() + (x - b.Min.X) }
	count := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if seen[idx(x, y)] || !raster.Painted(img, x, y) {
				continue
			}
			count++
			stack := []image.Point{{x, y}}
			seen[idx(x, y)] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, d := range []image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					q := p.Add(d)
					if !q.In(b) || seen[idx(q.X, q.Y)] || !raster.Painted(img, q.X, q.Y) {
						continue
					}
					seen[idx(q.X, q.Y)] = true
					stack = append(stack, q)
				}
			}
		}
	}
	return count
}

func TestTapPaintsDisk(t *testing.T) {
	for _, brush := range []int{MinBrush, DefaultBrush, MaxBrush} {
		t.Run(fmt.Sprintf("brush %d", brush), func(t *testing.T) {
			e := newEngine(t, 200, 200, brush)
			painted, err := e.HandleAll([]PointerEvent{Down(100, 100), Up()})
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if !painted {
				t.Fatalf("tap reported nothing drawn")
			}
			img := e.Surface().Image()
			if !raster.Painted(img, 100, 100) {
				t.Fatalf("center not painted")
			}
			r := float64(brush) / 2
			want := math.Pi * r * r
			// antialiased edge pixels may fall either side of the threshold
			slack := math.Max(0.1*want, 2*math.Pi*r)
			if got := float64(raster.CountPainted(img)); math.Abs(got-want) > slack {
				t.Fatalf("painted area %v, want %v +- %v", got, want, slack)
			}
			out := int(math.Ceil(r)) + 2
			for _, p := range []image.Point{{100 + out, 100}, {100 - out - 1, 100}, {100, 100 + out}, {100, 100 - out - 1}} {
				if raster.Painted(img, p.X, p.Y) {
					t.Fatalf("paint outside brush radius at %v", p)
				}
			}
			if e.Active() {
				t.Fatalf("stroke still active after up")
			}
		})
	}
}

func TestMoveWithoutDownIsIgnored(t *testing.T) {
	e := newEngine(t, 100, 100, 10)
	painted, err := e.HandleAll([]PointerEvent{Move(10, 10), Move(90, 90), Up()})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if painted {
		t.Fatalf("moves without a down reported drawing")
	}
	if n := raster.CountPainted(e.Surface().Image()); n != 0 {
		t.Fatalf("painted %d pixels without a down event", n)
	}
	if !e.Empty() {
		t.Fatalf("stroke record not empty")
	}
}

func TestStrokeStaysConnectedAtAnySampling(t *testing.T) {
	cases := []struct {
		name    string
		samples int
	}{
		{"coarse", 2},
		{"medium", 6},
		{"fine", 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, 300, 200, 10)
			evs := []PointerEvent{Down(20, 40)}
			for i := 1; i < tc.samples; i++ {
				f := float64(i) / float64(tc.samples-1)
				evs = append(evs, Move(20+260*f, 40+120*f))
			}
			evs = append(evs, Up())
			if _, err := e.HandleAll(evs); err != nil {
				t.Fatalf("handle: %v", err)
			}
			img := e.Surface().Image()
			if n := components(img); n != 1 {
				t.Fatalf("got %d painted components, want 1", n)
			}
			for i := 0; i <= 20; i++ {
				f := float64(i) / 20
				x, y := int(20+260*f), int(40+120*f)
				if !raster.Painted(img, x, y) {
					t.Fatalf("centerline pixel (%d,%d) not painted", x, y)
				}
			}
		})
	}
}

func TestStrokesAccumulate(t *testing.T) {
	e := newEngine(t, 200, 100, 10)
	if _, err := e.HandleAll([]PointerEvent{Down(30, 50), Up(), Down(170, 50), Up()}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	img := e.Surface().Image()
	if !raster.Painted(img, 30, 50) || !raster.Painted(img, 170, 50) {
		t.Fatalf("earlier stroke lost")
	}
	if n := components(img); n != 2 {
		t.Fatalf("got %d components, want 2", n)
	}
	if got := len(e.Strokes()); got != 2 {
		t.Fatalf("got %d strokes recorded, want 2", got)
	}
}

func TestClearRestoresInitialState(t *testing.T) {
	e := newEngine(t, 120, 80, 20)
	initial := e.Surface().Image()
	if _, err := e.HandleAll([]PointerEvent{Down(10, 10), Move(100, 70)}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	e.Clear()
	cleared := e.Surface().Image()
	if string(cleared.Pix) != string(initial.Pix) {
		t.Fatalf("cleared surface differs from initial")
	}
	if e.Active() || !e.Empty() {
		t.Fatalf("clear kept stroke state")
	}
	if e.Brush() != 20 {
		t.Fatalf("clear changed brush to %d", e.Brush())
	}
}

func TestBrushBounds(t *testing.T) {
	cases := []struct {
		size int
		ok   bool
	}{
		{4, false},
		{5, true},
		{30, true},
		{80, true},
		{81, false},
	}
	e := newEngine(t, 10, 10, DefaultBrush)
	for _, tc := range cases {
		err := e.SetBrush(tc.size)
		if tc.ok && err != nil {
			t.Fatalf("size %d: unexpected error %v", tc.size, err)
		}
		if !tc.ok && !errors.Is(err, domain.ErrInvalidBrush) {
			t.Fatalf("size %d: got %v, want ErrInvalidBrush", tc.size, err)
		}
	}
}

func TestBrushChangeAppliesToLaterSegments(t *testing.T) {
	e := newEngine(t, 300, 100, 10)
	if _, err := e.HandleAll([]PointerEvent{Down(20, 50), Move(140, 50)}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := e.SetBrush(40); err != nil {
		t.Fatalf("set brush: %v", err)
	}
	if _, err := e.HandleAll([]PointerEvent{Move(280, 50), Up()}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	img := e.Surface().Image()
	if raster.Painted(img, 80, 50+12) {
		t.Fatalf("thin segment repainted with the wider brush")
	}
	if !raster.Painted(img, 220, 50+12) {
		t.Fatalf("later segment not painted with the wider brush")
	}
	strokes := e.Strokes()
	if len(strokes) != 2 || strokes[1].Width != 40 {
		t.Fatalf("unexpected stroke record %+v", strokes)
	}
}

func TestRescaleReplaysStrokes(t *testing.T) {
	e := newEngine(t, 100, 100, 10)
	if _, err := e.HandleAll([]PointerEvent{Down(20, 50), Move(80, 50), Up()}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := e.Rescale(image.Pt(200, 200), 2); err != nil {
		t.Fatalf("rescale: %v", err)
	}
	img := e.Surface().Image()
	if got := img.Bounds().Size(); got != image.Pt(200, 200) {
		t.Fatalf("surface size %v", got)
	}
	bounds := raster.PaintedBounds(img)
	if bounds.Min.X < 28 || bounds.Min.X > 32 || bounds.Max.X < 168 || bounds.Max.X > 172 {
		t.Fatalf("replayed x extent %v", bounds)
	}
	if h := bounds.Dy(); h < 18 || h > 22 {
		t.Fatalf("replayed band height %d, want about 20", h)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  RawPointer
		want PointerEvent
	}{
		{"mouse offset", RawPointer{Source: "mouse", Type: "mousedown", OffsetX: 12, OffsetY: 7}, Down(12, 7)},
		{"default source", RawPointer{Type: "move", OffsetX: 3, OffsetY: 4}, Move(3, 4)},
		{"touch client minus rect", RawPointer{Source: "touch", Type: "touchmove", ClientX: 150, ClientY: 90, RectX: 100, RectY: 40}, Move(50, 50)},
		{"mouse leave ends", RawPointer{Source: "mouse", Type: "mouseleave", OffsetX: 999}, Up()},
		{"touch cancel ends", RawPointer{Source: "touch", Type: "touchcancel"}, Up()},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.raw)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
	if _, err := Normalize(RawPointer{Type: "wheel"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := Normalize(RawPointer{Source: "pen", Type: "down"}); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}
