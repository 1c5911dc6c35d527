package dict

import (
	"sort"

	"github.com/alitto/pond"
	"github.com/cespare/xxhash/v2"
)

// Sharded is the async/parallel dictionary variant (spec.md §4.2, §5):
// bulk operations are decomposed into per-shard tasks that execute
// concurrently on an external worker pool and are then joined. Each shard
// is an independent Sync dictionary; xxhash64 distributes keys across
// shards. The worker pool is github.com/alitto/pond, the "external worker
// pool" spec.md §4.2/§5 calls for.
type Sharded struct {
	shards []*Sync
	pool   *pond.WorkerPool
	owned  bool // whether Close should stop pool
}

// NewSharded returns a Sharded dictionary with numShards independent
// shards. If pool is nil, a dedicated pool sized to numShards is created
// and owned by the returned Sharded (closed by Close).
func NewSharded(numShards int, pool *pond.WorkerPool) *Sharded {
	if numShards < 1 {
		numShards = 1
	}
	shards := make([]*Sync, numShards)
	for i := range shards {
		shards[i] = newSyncShard(i, numShards)
	}
	owned := false
	if pool == nil {
		pool = pond.New(numShards, 0, pond.MinWorkers(numShards))
		owned = true
	}
	return &Sharded{shards: shards, pool: pool, owned: owned}
}

// Close releases the worker pool if this Sharded created it.
func (d *Sharded) Close() {
	if d.owned {
		d.pool.StopAndWait()
	}
}

func (d *Sharded) shardFor(s string) int {
	return int(xxhash.Sum64String(s) % uint64(len(d.shards)))
}

// Insert implements Dictionary. Per-caller relative order of the returned
// ids matches the input array, index for index (spec.md §5 ordering
// guarantee), even though each shard inserts out of order relative to the
// others.
func (d *Sharded) Insert(strs []string) []uint64 {
	byShard := make([][]int, len(d.shards)) // shard -> indices into strs
	for i, s := range strs {
		sh := d.shardFor(s)
		byShard[sh] = append(byShard[sh], i)
	}

	ids := make([]uint64, len(strs))
	group := d.pool.Group()
	for sh, idxs := range byShard {
		sh, idxs := sh, idxs
		if len(idxs) == 0 {
			continue
		}
		group.Submit(func() {
			keys := make([]string, len(idxs))
			for j, idx := range idxs {
				keys[j] = strs[idx]
			}
			got := d.shards[sh].Insert(keys)
			for j, idx := range idxs {
				ids[idx] = got[j]
			}
		})
	}
	_ = group.Wait()
	return ids
}

// LocateSafe implements Dictionary.
func (d *Sharded) LocateSafe(keys []string) ([]uint64, []bool, int) {
	byShard := make([][]int, len(d.shards))
	for i, k := range keys {
		sh := d.shardFor(k)
		byShard[sh] = append(byShard[sh], i)
	}

	ids := make([]uint64, len(keys))
	found := make([]bool, len(keys))
	missingCounts := make([]int, len(d.shards))
	group := d.pool.Group()
	for sh, idxs := range byShard {
		sh, idxs := sh, idxs
		if len(idxs) == 0 {
			continue
		}
		group.Submit(func() {
			ks := make([]string, len(idxs))
			for j, idx := range idxs {
				ks[j] = keys[idx]
			}
			gotIDs, gotFound, gotMissing := d.shards[sh].LocateSafe(ks)
			for j, idx := range idxs {
				ids[idx] = gotIDs[j]
				found[idx] = gotFound[j]
			}
			missingCounts[sh] = gotMissing
		})
	}
	_ = group.Wait()
	total := 0
	for _, m := range missingCounts {
		total += m
	}
	return ids, found, total
}

// LocateFast implements Dictionary.
func (d *Sharded) LocateFast(keys []string) []uint64 {
	ids, _, missing := d.LocateSafe(keys)
	if missing > 0 {
		panic("dict: LocateFast called with missing keys")
	}
	return ids
}

// Extract implements Dictionary.
func (d *Sharded) Extract(ids []uint64) []string {
	byShard := make([][]int, len(d.shards))
	for i, id := range ids {
		sh := int(id % uint64(len(d.shards)))
		byShard[sh] = append(byShard[sh], i)
	}
	out := make([]string, len(ids))
	group := d.pool.Group()
	for sh, idxs := range byShard {
		sh, idxs := sh, idxs
		if len(idxs) == 0 {
			continue
		}
		group.Submit(func() {
			localIDs := make([]uint64, len(idxs))
			for j, idx := range idxs {
				localIDs[j] = ids[idx]
			}
			got := d.shards[sh].Extract(localIDs)
			for j, idx := range idxs {
				out[idx] = got[j]
			}
		})
	}
	_ = group.Wait()
	return out
}

// Remove implements Dictionary.
func (d *Sharded) Remove(ids []uint64) {
	byShard := make([][]uint64, len(d.shards))
	for _, id := range ids {
		sh := int(id % uint64(len(d.shards)))
		byShard[sh] = append(byShard[sh], id)
	}
	group := d.pool.Group()
	for sh, localIDs := range byShard {
		sh, localIDs := sh, localIDs
		if len(localIDs) == 0 {
			continue
		}
		group.Submit(func() { d.shards[sh].Remove(localIDs) })
	}
	_ = group.Wait()
}

// NumDistinct implements Dictionary.
func (d *Sharded) NumDistinct() int {
	total := 0
	for _, s := range d.shards {
		total += s.NumDistinct()
	}
	return total
}

// Contents implements Dictionary.
func (d *Sharded) Contents() []Entry {
	var out []Entry
	for _, s := range d.shards {
		out = append(out, s.Contents()...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sid < out[j].Sid })
	return out
}
