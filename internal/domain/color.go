package domain

import (
	"fmt"
)

// brightenBelow is the channel value at or under which a channel gets doubled,
// so that assigned colors never come out near-black.
const brightenBelow = 50

type Color struct {
	R, G, B uint8
}

// String renders the color the way clients expect it: rgb(r,g,b).
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	parsed, ok := ParseColor(string(b))
	if !ok {
		return fmt.Errorf("invalid color %q", b)
	}
	*c = parsed
	return nil
}

// NewRandomColor picks every channel uniformly in [1,255] using intn
// (the signature of rand.IntN) and brightens dark channels.
func NewRandomColor(intn func(n int) int) Color {
	channel := func() uint8 {
		v := intn(255) + 1
		if v <= brightenBelow {
			v *= 2
		}
		return uint8(v)
	}
	return Color{R: channel(), G: channel(), B: channel()}
}

// ParseColor accepts the rgb(r,g,b) form produced by String.
func ParseColor(s string) (Color, bool) {
	var r, g, b int
	if _, err := fmt.Sscanf(s, "rgb(%d,%d,%d)", &r, &g, &b); err != nil {
		return Color{}, false
	}
	for _, v := range []int{r, g, b} {
		if v < 0 || v > 255 {
			return Color{}, false
		}
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, true
}
