package light

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is a 3-channel intensity triple.
type Color [3]uint8

var Black = Color{0, 0, 0}

func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d", c[0], c[1], c[2])
}

// UnmarshalJSON accepts both [r,g,b] and "r,g,b"; displays send either.
func (c *Color) UnmarshalJSON(data []byte) error {
	var channels []int
	if err := json.Unmarshal(data, &channels); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidColor, data)
		}
		parsed, err := ParseColor(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	return c.fromInts(channels)
}

// ParseColor parses "r,g,b".
func ParseColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	channels := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		channels = append(channels, v)
	}
	var c Color
	if err := c.fromInts(channels); err != nil {
		return Color{}, err
	}
	return c, nil
}

func (c *Color) fromInts(channels []int) error {
	if len(channels) != 3 {
		return fmt.Errorf("%w: want 3 channels, got %d", ErrInvalidColor, len(channels))
	}
	for i, v := range channels {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: channel %d out of range", ErrInvalidColor, v)
		}
		c[i] = uint8(v)
	}
	return nil
}

// ClickAction tells displays what to do when a fixture is touched.
type ClickAction string

const (
	ClickIgnore ClickAction = "ignore"
	ClickReport ClickAction = "report"
)
