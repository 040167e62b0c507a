package reweighing

import "fmt"

// Cell names one (group, label) combination.
type Cell int

const (
	PrivilegedFavorable Cell = iota
	PrivilegedUnfavorable
	UnprivilegedFavorable
	UnprivilegedUnfavorable
)

func (c Cell) String() string {
	switch c {
	case PrivilegedFavorable:
		return "privileged-favorable"
	case PrivilegedUnfavorable:
		return "privileged-unfavorable"
	case UnprivilegedFavorable:
		return "unprivileged-favorable"
	case UnprivilegedUnfavorable:
		return "unprivileged-unfavorable"
	}
	return fmt.Sprintf("cell(%d)", int(c))
}

// Weights holds the learned multiplier of each cell.
type Weights struct {
	PrivilegedFavorable     float64 `json:"privileged_favorable"`
	PrivilegedUnfavorable   float64 `json:"privileged_unfavorable"`
	UnprivilegedFavorable   float64 `json:"unprivileged_favorable"`
	UnprivilegedUnfavorable float64 `json:"unprivileged_unfavorable"`
}

// Tuple returns the weights in the fixed order privileged-favorable,
// privileged-unfavorable, unprivileged-favorable, unprivileged-unfavorable.
func (w Weights) Tuple() [4]float64 {
	return [4]float64{
		w.PrivilegedFavorable,
		w.PrivilegedUnfavorable,
		w.UnprivilegedFavorable,
		w.UnprivilegedUnfavorable,
	}
}

// Get returns the weight of one cell. Unknown cells report false.
func (w Weights) Get(c Cell) (float64, bool) {
	t := w.Tuple()
	if c < 0 || int(c) >= len(t) {
		return 0, false
	}
	return t[c], true
}

func (w Weights) String() string {
	t := w.Tuple()
	return fmt.Sprintf("(%.6f, %.6f, %.6f, %.6f)", t[0], t[1], t[2], t[3])
}

func (w *Weights) set(c Cell, v float64) {
	switch c {
	case PrivilegedFavorable:
		w.PrivilegedFavorable = v
	case PrivilegedUnfavorable:
		w.PrivilegedUnfavorable = v
	case UnprivilegedFavorable:
		w.UnprivilegedFavorable = v
	case UnprivilegedUnfavorable:
		w.UnprivilegedUnfavorable = v
	}
}
