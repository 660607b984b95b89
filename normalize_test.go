package aoilib

import (
	"math"
	"testing"
)

func TestNormalizeValues(t *testing.T) {
	nd := -9999.0
	data := []float64{-9999, 1.5, math.Inf(1), math.Inf(-1), math.NaN(), 0}
	NormalizeValues(data, &nd)
	for _, i := range []int{0, 2, 3, 4} {
		if !math.IsNaN(data[i]) {
			t.Fatalf("data[%d] = %f, want NaN", i, data[i])
		}
	}
	if data[1] != 1.5 || data[5] != 0 {
		t.Fatalf("valid values changed: %v", data)
	}
}

func TestNormalizeValuesNoNodata(t *testing.T) {
	data := []float64{-9999, math.Inf(1), 2}
	NormalizeValues(data, nil)
	if data[0] != -9999 {
		t.Fatal("undeclared nodata value should pass through")
	}
	if !math.IsNaN(data[1]) || data[2] != 2 {
		t.Fatalf("got %v", data)
	}
}

func TestRestoreNodataRoundTrip(t *testing.T) {
	nd := -9999.0
	orig := []float64{-9999, 0.25, 42, -9999, 7}
	data := make([]float64, len(orig))
	copy(data, orig)
	NormalizeValues(data, &nd)
	RestoreNodata(data, &nd)
	for i := range orig {
		if data[i] != orig[i] {
			t.Fatalf("data[%d] = %v, want %v", i, data[i], orig[i])
		}
	}
}

func TestRestoreNodataUndeclared(t *testing.T) {
	data := []float64{math.NaN(), 3}
	RestoreNodata(data, nil)
	if !math.IsNaN(data[0]) || data[1] != 3 {
		t.Fatalf("got %v", data)
	}
}

func TestCollectValid(t *testing.T) {
	data := []float64{math.NaN(), 1, 2, math.NaN(), 3}
	valid := collectValid(data)
	if len(valid) != 3 || valid[0] != 1 || valid[2] != 3 {
		t.Fatalf("got %v", valid)
	}
}
