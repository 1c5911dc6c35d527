package dict

import (
	"sort"
	"sync"
)

// Sync is a single-shard string dictionary. Every method takes the
// dictionary's own mutex, so a Sync is safe for concurrent use; Sharded
// composes one Sync per shard.
type Sync struct {
	mu      sync.Mutex
	byStr   map[string]uint64
	byID    map[uint64]string
	nextID  uint64
	idBase  uint64 // added to every locally-assigned id (sharding offset)
	idStep  uint64 // stride between consecutive local ids (sharding stride)
}

// NewSync returns an empty Sync dictionary whose ids start at 1 and
// increment by 1 (NullSid=0 is reserved and never assigned).
func NewSync() *Sync {
	return &Sync{
		byStr:  make(map[string]uint64),
		byID:   make(map[uint64]string),
		nextID: 1,
		idBase: 0,
		idStep: 1,
	}
}

// newSyncShard returns a Sync whose ids are shardIndex + numShards*k for
// k >= 1, used by Sharded to keep the global id space partitioned by
// shard: id % numShards is the owning shard's index, which is how
// Sharded's Extract and Remove route ids. The shard index is not stored
// in the high bits of the id.
func newSyncShard(shardIndex, numShards int) *Sync {
	s := NewSync()
	s.idStep = uint64(numShards)
	s.idBase = uint64(shardIndex)
	s.nextID = s.idBase + s.idStep // first non-null id for this shard
	if s.idBase == 0 {
		s.nextID = s.idStep // never hand out raw 0 (reserved for null)
	}
	return s
}

// Insert implements Dictionary.
func (d *Sync) Insert(strs []string) []uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]uint64, len(strs))
	for i, s := range strs {
		ids[i] = d.insertLocked(s)
	}
	return ids
}

func (d *Sync) insertLocked(s string) uint64 {
	if id, ok := d.byStr[s]; ok {
		return id
	}
	id := d.nextID
	d.nextID += d.idStep
	d.byStr[s] = id
	d.byID[id] = s
	return id
}

// LocateSafe implements Dictionary.
func (d *Sync) LocateSafe(keys []string) ([]uint64, []bool, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]uint64, len(keys))
	found := make([]bool, len(keys))
	missing := 0
	for i, k := range keys {
		if id, ok := d.byStr[k]; ok {
			ids[i] = id
			found[i] = true
		} else {
			missing++
		}
	}
	return ids, found, missing
}

// LocateFast implements Dictionary.
func (d *Sync) LocateFast(keys []string) []uint64 {
	ids, _, missing := d.LocateSafe(keys)
	if missing > 0 {
		panic("dict: LocateFast called with missing keys")
	}
	return ids
}

// Extract implements Dictionary.
func (d *Sync) Extract(ids []uint64) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = d.byID[id]
	}
	return out
}

// Remove implements Dictionary.
func (d *Sync) Remove(ids []uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		if s, ok := d.byID[id]; ok {
			delete(d.byID, id)
			delete(d.byStr, s)
		}
	}
}

// NumDistinct implements Dictionary.
func (d *Sync) NumDistinct() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byID)
}

// Contents implements Dictionary.
func (d *Sync) Contents() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Entry, 0, len(d.byID))
	for id, s := range d.byID {
		out = append(out, Entry{Sid: id, String: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sid < out[j].Sid })
	return out
}
