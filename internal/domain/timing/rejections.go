package timing

// Reason classifies the outcome of the per-cell selection.
type Reason int

// Selection outcomes, in the order they are tested.
const (
	Accepted Reason = iota
	RejectFlag
	RejectEnergy
	RejectTimeError
	RejectTime
	RejectGeometry
	RejectDistance
	numReasons
)

var reasonNames = [numReasons]string{
	"accepted", "flag", "energy", "time_error", "time", "geometry", "distance",
}

// String returns the reason name used in metric labels.
func (r Reason) String() string {
	if r >= 0 && r < numReasons {
		return reasonNames[r]
	}
	return "unknown"
}

// Reasons lists every rejection reason.
func Reasons() []Reason {
	out := make([]Reason, 0, numReasons-1)
	for r := RejectFlag; r < numReasons; r++ {
		out = append(out, r)
	}
	return out
}

// Rejections counts rejected cells per reason.
type Rejections [numReasons]uint64

func (r *Rejections) add(reason Reason) {
	if r == nil {
		return
	}
	r[reason]++
}

// Count returns the tally for one reason.
func (r *Rejections) Count(reason Reason) uint64 {
	if reason < 0 || reason >= numReasons {
		return 0
	}
	return r[reason]
}

// Total returns the number of rejected cells.
func (r *Rejections) Total() uint64 {
	var n uint64
	for reason := RejectFlag; reason < numReasons; reason++ {
		n += r[reason]
	}
	return n
}
