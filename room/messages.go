package room

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tankTopTaro/greyzone-game-room-app/light"
)

// lightID accepts a light id sent as a number or as a string.
type lightID int

func (id *lightID) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*id = lightID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("light id %s: %w", data, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("light id %q: %w", s, err)
	}
	*id = lightID(n)
	return nil
}

type lightClickAction struct {
	LightID       *lightID     `json:"lightId"`
	WhileColorWas *light.Color `json:"whileColorWas"`
}
