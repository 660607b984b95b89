package aoilib

import (
	"math"
	"testing"
)

func TestSpanToWkt(t *testing.T) {
	wkt := SpanToWkt([4]float64{1, 2, 3, 4})
	want := "POLYGON((1.000000 3.000000, 1.000000 4.000000, 2.000000 4.000000, 2.000000 3.000000, 1.000000 3.000000))"
	if wkt != want {
		t.Fatalf("wkt = %s", wkt)
	}
}

func TestTrans3857RoundTrip(t *testing.T) {
	x, y := Convert4326To3857(MumbaiSpan[0], MumbaiSpan[2])
	t.Log(x, y)
	lon, lat := Convert3857To4326(x, y)
	if math.Abs(lon-MumbaiSpan[0]) > 1e-6 || math.Abs(lat-MumbaiSpan[2]) > 1e-6 {
		t.Fatalf("round trip got (%f, %f)", lon, lat)
	}
}
