package wavelet

import (
	"math"
	"testing"
)

func testSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 5*math.Sin(float64(i)/7) + 0.3*float64(i%5)
	}
	return out
}

func TestForward_ShapesMatchWindow(t *testing.T) {
	for _, name := range []string{"haar", "db4"} {
		tr, err := Resolve(name)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		prices := testSeries(64)
		d, err := tr.Forward(prices, 4)
		if err != nil {
			t.Fatalf("%s forward: %v", name, err)
		}
		if len(d.Approx) != 64 {
			t.Fatalf("%s: approx length %d", name, len(d.Approx))
		}
		if len(d.Details) != 4 {
			t.Fatalf("%s: want 4 detail levels, got %d", name, len(d.Details))
		}
		for j, lvl := range d.Details {
			if len(lvl) != 64 {
				t.Fatalf("%s level %d: length %d", name, j+1, len(lvl))
			}
		}
	}
}

func TestForwardInverse_RoundTrips(t *testing.T) {
	for _, name := range []string{"haar", "db4"} {
		tr, _ := Resolve(name)
		prices := testSeries(128)
		d, err := tr.Forward(prices, 5)
		if err != nil {
			t.Fatalf("%s forward: %v", name, err)
		}
		back := tr.Inverse(d)
		for i := range prices {
			if math.Abs(back[i]-prices[i]) > 1e-9 {
				t.Fatalf("%s: bar %d: %v != %v", name, i, back[i], prices[i])
			}
		}
	}
}

func TestForward_RejectsDegenerateInput(t *testing.T) {
	tr, _ := Resolve("haar")
	if _, err := tr.Forward(nil, 3); err == nil {
		t.Fatal("want error for empty window")
	}
	if _, err := tr.Forward(testSeries(16), 0); err == nil {
		t.Fatal("want error for zero levels")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	tr, _ := Resolve("haar")
	d, err := tr.Forward(testSeries(32), 3)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	clone := d.Clone()
	d.Details[0][0] = 12345
	d.Approx[0] = 12345
	if clone.Details[0][0] == 12345 || clone.Approx[0] == 12345 {
		t.Fatal("clone shares backing arrays with the original")
	}
}

func TestResolve_UnknownNameErrors(t *testing.T) {
	if _, err := Resolve("sym9"); err == nil {
		t.Fatal("want error for unregistered wavelet")
	}
	names := Names()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["haar"] || !found["db4"] {
		t.Fatalf("registry missing built-ins: %v", names)
	}
}
