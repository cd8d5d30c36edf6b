package dispatch

import (
	"context"

	"github.com/tankTopTaro/greyzone-game-room-app/light"
)

// Hardware writes one fixture's color to the physical controller.
type Hardware interface {
	Send(ctx context.Context, fixtureID int, c light.Color) error
}

// NopHardware accepts every write. Real controllers are out of scope.
type NopHardware struct{}

func (NopHardware) Send(ctx context.Context, fixtureID int, c light.Color) error {
	return ctx.Err()
}
