package cursor

import "testing"

func TestMove(t *testing.T) {
	tests := []struct {
		name       string
		start      int
		delta      int
		len        int
		height     int
		wantPos    int
		wantOffset int
	}{
		{"down one", 0, 1, 5, 10, 1, 0},
		{"clamped at end", 4, 3, 5, 10, 4, 0},
		{"clamped at start", 1, -5, 5, 10, 0, 0},
		{"scrolls down with margin", 3, 1, 20, 5, 4, 1},
		{"far jump scrolls to end", 0, 19, 20, 5, 19, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(1)
			c.pos = tt.start
			c.Move(tt.delta, tt.len, tt.height)
			if c.Pos() != tt.wantPos {
				t.Errorf("Pos() = %d, want %d", c.Pos(), tt.wantPos)
			}
			if c.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", c.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestMove_EmptyList(t *testing.T) {
	c := New(2)
	c.Move(1, 0, 5)
	if c.Pos() != 0 || c.Offset() != 0 {
		t.Errorf("Move on empty list changed cursor to (%d, %d)", c.Pos(), c.Offset())
	}
}

func TestMove_ScrollsBackUp(t *testing.T) {
	c := New(1)
	c.Jump(9, 10, 4)
	if c.Offset() != 6 {
		t.Fatalf("Offset() after Jump = %d, want 6", c.Offset())
	}
	c.Move(-3, 10, 4)
	if c.Pos() != 6 || c.Offset() != 5 {
		t.Errorf("cursor = (%d, %d), want (6, 5)", c.Pos(), c.Offset())
	}
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		name      string
		offset    int
		len       int
		height    int
		wantStart int
		wantEnd   int
	}{
		{"normal range", 2, 10, 5, 2, 7},
		{"at end of list", 7, 10, 5, 7, 10},
		{"empty list", 0, 0, 5, 0, 0},
		{"zero height", 0, 10, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(2)
			c.offset = tt.offset
			start, end := c.VisibleRange(tt.len, tt.height)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("VisibleRange() = (%d, %d), want (%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		key     string
		start   int
		want    int
		handled bool
	}{
		{"j", 0, 1, true},
		{"down", 0, 1, true},
		{"k", 2, 1, true},
		{"up", 0, 0, true},
		{"G", 0, 7, true},
		{"end", 3, 7, true},
		{"g", 5, 0, true},
		{"pgdown", 0, 3, true},
		{"pgup", 7, 4, true},
		{"3", 0, 2, true},
		{"9", 0, 0, false},
		{"x", 4, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c := New(0)
			c.Jump(tt.start, 8, 4)
			handled := c.HandleKey(tt.key, 8, 4)
			if handled != tt.handled {
				t.Errorf("HandleKey(%q) handled = %v, want %v", tt.key, handled, tt.handled)
			}
			if c.Pos() != tt.want {
				t.Errorf("HandleKey(%q) pos = %d, want %d", tt.key, c.Pos(), tt.want)
			}
		})
	}
}

func TestReset(t *testing.T) {
	c := New(2)
	c.Jump(8, 10, 3)
	c.Reset()
	if c.Pos() != 0 || c.Offset() != 0 {
		t.Errorf("Reset() = (%d, %d), want (0, 0)", c.Pos(), c.Offset())
	}
}
