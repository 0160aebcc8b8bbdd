package game

import (
	"math/rand"
	"testing"

	"github.com/dcrodman/roulette/internal/protocol"
)

// scriptedSource replays a fixed sequence of draws, wrapping around when it
// runs out.
type scriptedSource struct {
	values []int
	pos    int
}

// chambers builds a scriptedSource from a string of L (live) and B (blank).
func chambers(pattern string) *scriptedSource {
	src := &scriptedSource{}
	for _, c := range pattern {
		if c == 'L' {
			src.values = append(src.values, 1)
		} else {
			src.values = append(src.values, 0)
		}
	}
	return src
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v % n
}

func TestCylinder_Load(t *testing.T) {
	var c Cylinder
	c.Load(chambers("LLBLBB"))

	if c.Index() != 0 || c.Live() != 3 || c.Blank() != 3 {
		t.Fatalf("Load() want = index 0, 3 live, 3 blank, got = index %d, %d live, %d blank",
			c.Index(), c.Live(), c.Blank())
	}

	want := []protocol.Outcome{
		protocol.Live, protocol.Live, protocol.Blank,
		protocol.Live, protocol.Blank, protocol.Blank,
	}
	for i, w := range want {
		if c.Spent() {
			t.Fatalf("Spent() true after %d shots", i)
		}
		if got := c.Next(); got != w {
			t.Errorf("Next() #%d want = %v, got = %v", i+1, w, got)
		}
		if c.Live()+c.Blank() != protocol.Chambers-c.Index() {
			t.Errorf("live + blank = %d, want %d", c.Live()+c.Blank(), protocol.Chambers-c.Index())
		}
	}
	if !c.Spent() {
		t.Error("Spent() want = true after six shots")
	}
}

func TestCylinder_LoadResets(t *testing.T) {
	var c Cylinder
	c.Load(chambers("LLLLLL"))
	c.Next()
	c.Next()

	c.Load(chambers("BBBBBB"))
	if c.Index() != 0 || c.Live() != 0 || c.Blank() != 6 {
		t.Errorf("reload want = index 0, 0 live, 6 blank, got = index %d, %d live, %d blank",
			c.Index(), c.Live(), c.Blank())
	}
}

func TestCylinder_LoadIsIndependentPerChamber(t *testing.T) {
	src := rand.New(rand.NewSource(1))
	seen := make(map[int]bool)

	for i := 0; i < 2000; i++ {
		var c Cylinder
		c.Load(src)
		if c.Live()+c.Blank() != protocol.Chambers {
			t.Fatalf("live + blank = %d after load", c.Live()+c.Blank())
		}
		seen[c.Live()] = true
	}

	// Every split from 0/6 to 6/0 should turn up over enough draws.
	for live := 0; live <= protocol.Chambers; live++ {
		if !seen[live] {
			t.Errorf("never drew a cylinder with %d live rounds", live)
		}
	}
}
