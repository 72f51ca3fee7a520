package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func point(seq int64) Point {
	return Point{
		At:           time.Unix(seq, 0).UTC(),
		ReferenceUSD: decimal.NewFromInt(seq),
	}
}

func TestRecorderAppendsInOrder(t *testing.T) {
	r := NewRecorder(4)
	for i := int64(1); i <= 3; i++ {
		r.Append(point(i))
	}

	points := r.Points()
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, p := range points {
		if p.ReferenceUSD.Cmp(decimal.NewFromInt(int64(i)+1)) != 0 {
			t.Fatalf("point %d out of order: %s", i, p.ReferenceUSD)
		}
	}
}

func TestRecorderEvictsOldest(t *testing.T) {
	r := NewRecorder(3)
	for i := int64(1); i <= 5; i++ {
		r.Append(point(i))
	}

	points := r.Points()
	if len(points) != 3 {
		t.Fatalf("expected capacity-bounded 3 points, got %d", len(points))
	}
	if points[0].ReferenceUSD.Cmp(decimal.NewFromInt(3)) != 0 {
		t.Fatalf("oldest retained point should be 3, got %s", points[0].ReferenceUSD)
	}
	if points[2].ReferenceUSD.Cmp(decimal.NewFromInt(5)) != 0 {
		t.Fatalf("newest point should be 5, got %s", points[2].ReferenceUSD)
	}
	if r.Len() != 3 {
		t.Fatalf("Len should report 3, got %d", r.Len())
	}
}
