package history

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Point is one cycle's computed USD prices.
type Point struct {
	At           time.Time
	ReferenceUSD decimal.Decimal
	Prices       map[common.Address]decimal.Decimal
}

// Recorder keeps a bounded in-memory ring of recent price points for the
// show and export commands. Nothing here survives a restart.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	points   []Point
	start    int
}

// NewRecorder builds a recorder holding at most capacity points.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1
	}
	return &Recorder{capacity: capacity}
}

// Append records a point, evicting the oldest once full.
func (r *Recorder) Append(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.points) < r.capacity {
		r.points = append(r.points, p)
		return
	}
	r.points[r.start] = p
	r.start = (r.start + 1) % r.capacity
}

// Points returns the recorded points in chronological order.
func (r *Recorder) Points() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Point, 0, len(r.points))
	for i := 0; i < len(r.points); i++ {
		result = append(result, r.points[(r.start+i)%len(r.points)])
	}
	return result
}

// Len reports the number of recorded points.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}
