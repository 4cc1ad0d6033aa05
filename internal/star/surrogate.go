package star

// IDAllocator hands out surrogate songplay ids. Ids combine a partition
// index with a partition-local counter, so they are unique across
// partitions and increasing within one, but carry no global order and are
// not stable across reruns.
type IDAllocator struct {
	base int64
	next int64
}

// NewIDAllocator returns an allocator for the given partition index.
func NewIDAllocator(partition int) *IDAllocator {
	return &IDAllocator{base: int64(partition) << 33}
}

// Next returns the next surrogate id.
func (a *IDAllocator) Next() int64 {
	id := a.base | a.next
	a.next++
	return id
}
