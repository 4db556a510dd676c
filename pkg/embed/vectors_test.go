package embed

import (
	"math"
	"testing"
)

func TestMeanPool(t *testing.T) {
	got := MeanPool([][]float32{
		{1, 0, 3},
		{3, 2, 1},
	})
	want := []float32{2, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MeanPool()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if MeanPool(nil) != nil {
		t.Error("MeanPool(nil) should be nil")
	}
}

func TestNormalizeUnitNorm(t *testing.T) {
	v := Normalize([]float32{3, 4})

	if math.Abs(Norm(v)-1) > 1e-6 {
		t.Errorf("Norm(Normalize(v)) = %v, want 1", Norm(v))
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", v)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("zero vector should stay zero, got %v at %d", x, i)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineDistanceComplementsSimilarity(t *testing.T) {
	a := Normalize([]float32{1, 2, 3})
	b := Normalize([]float32{3, 2, 1})
	if d := CosineDistance(a, b) + CosineSimilarity(a, b); math.Abs(d-1) > 1e-9 {
		t.Errorf("distance + similarity = %v, want 1", d)
	}
}
