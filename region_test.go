package veld

import "testing"

func TestRegionAddSubtract(t *testing.T) {
	var r Region
	r.Add(NewIntRect(0, 0, 10, 10))
	if r.Area() != 100 {
		t.Fatalf("area = %d, want 100", r.Area())
	}
	// Overlapping add must not double count.
	r.Add(NewIntRect(5, 0, 15, 10))
	if r.Area() != 150 {
		t.Fatalf("area after overlap add = %d, want 150", r.Area())
	}
	r.Subtract(NewIntRect(0, 0, 15, 5))
	if r.Area() != 75 {
		t.Fatalf("area after subtract = %d, want 75", r.Area())
	}
	if r.Contains(NewIntRect(0, 0, 1, 1)) {
		t.Error("subtracted pixel still contained")
	}
	if !r.Contains(NewIntRect(0, 5, 15, 10)) {
		t.Error("remaining band not contained")
	}
}

func TestRegionContains(t *testing.T) {
	var r Region
	r.Add(NewIntRect(0, 0, 4, 4))
	r.Add(NewIntRect(4, 0, 8, 4))
	// Containment must see across rectangle seams.
	if !r.Contains(NewIntRect(2, 1, 6, 3)) {
		t.Error("seam-spanning rect not contained")
	}
	if r.Contains(NewIntRect(2, 1, 9, 3)) {
		t.Error("overhanging rect contained")
	}
}

func TestRegionTranslatedIntersect(t *testing.T) {
	r := NewRegion(NewIntRect(0, 0, 4, 4))
	s := r.Translated(10, 0)
	if !s.Contains(NewIntRect(10, 0, 14, 4)) {
		t.Error("translate lost coverage")
	}
	s.Intersect(NewIntRect(12, 0, 20, 4))
	if s.Area() != 8 {
		t.Errorf("area after clip = %d, want 8", s.Area())
	}
}

func TestRegionEmpty(t *testing.T) {
	var r Region
	if !r.IsEmpty() || r.Area() != 0 {
		t.Error("zero region not empty")
	}
	r.Add(IntRect{})
	if !r.IsEmpty() {
		t.Error("adding empty rect made region non-empty")
	}
}
