package carrier

import "fmt"

// ValleyTable associates each track with the valley it currently occupies.
// It is owned by the kernel adapter and handed to the processes; it takes no
// locks, so one table must not be shared by workers stepping different
// tracks concurrently.
type ValleyTable struct {
	valleys map[TrackID]int
}

func NewValleyTable() *ValleyTable {
	return &ValleyTable{valleys: map[TrackID]int{}}
}

// Valley returns the valley of the track, 0 if none was assigned yet.
func (t *ValleyTable) Valley(id TrackID) int {
	return t.valleys[id]
}

func (t *ValleyTable) SetValley(id TrackID, valley int) {
	if valley < 1 || valley > 4 {
		panic(fmt.Sprintf("valley index %d out of range", valley))
	}
	t.valleys[id] = valley
}

// Forget drops the entry of a finished track.
func (t *ValleyTable) Forget(id TrackID) {
	delete(t.valleys, id)
}

func (t *ValleyTable) Len() int {
	return len(t.valleys)
}
