package light

// Target is a destination whose last delivered state is tracked per fixture.
type Target int

const (
	TargetHardware Target = iota
	TargetMonitor
)

func (t Target) String() string {
	if t == TargetHardware {
		return "hardware"
	}
	return "monitor"
}

// Change is a fixture whose current state differs from what a target last
// received.
type Change struct {
	ID        int
	Color     Color
	OnClick   ClickAction
	Signature string
}

// Pending lists the fixtures whose signature differs from the last one
// delivered to target.
func (g *Grid) Pending(target Target) []Change {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var changes []Change
	for _, f := range g.fixtures {
		sig := f.Signature()
		last := f.monitorSig
		if target == TargetHardware {
			last = f.hardwareSig
		}
		if sig != last {
			changes = append(changes, Change{ID: f.ID, Color: f.Color, OnClick: f.OnClick, Signature: sig})
		}
	}
	return changes
}

// MarkDelivered records that target received signature sig for fixture id.
func (g *Grid) MarkDelivered(target Target, id int, sig string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.byID[id]
	if !ok {
		return
	}
	if target == TargetHardware {
		f.hardwareSig = sig
	} else {
		f.monitorSig = sig
	}
}
