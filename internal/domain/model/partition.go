package model

import "fmt"

// Partition is the unit of work handed to a worker: a contiguous entry range
// of one input belonging to one physics process.
type Partition struct {
	ID      int
	Process string // process name from the job configuration, e.g. "ggH125_ZZ4lep"
	Path    string // input file
	IsData  bool   // real collision data: every event weighs 1
	Begin   int64  // first entry, inclusive
	End     int64  // last entry, exclusive

	// Capacity holds the collection bounds of the input, computed once when
	// the job is planned. Nil lets the worker scan the input itself.
	Capacity map[Kind]int
}

// Len returns the number of entries covered by the partition.
func (p Partition) Len() int64 {
	if p.End < p.Begin {
		return 0
	}
	return p.End - p.Begin
}

func (p Partition) String() string {
	return fmt.Sprintf("%s[%d:%d]", p.Process, p.Begin, p.End)
}
