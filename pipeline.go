package gravitywalk

import "sync"

// parallelEach splits items into contiguous chunks, one per worker, and
// calls fn once per item. fn must only touch its own item: kinematic bodies
// integrate independently and every orientation controller reads its own
// character. It returns once every chunk is done.
func parallelEach[T any](workers int, items []T, fn func(item T)) {
	count := len(items)
	workers = min(max(workers, 1), count)
	if workers <= 1 {
		for _, item := range items {
			fn(item)
		}
		return
	}

	chunkSize := (count + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < count; start += chunkSize {
		wg.Add(1)
		go func(chunk []T) {
			defer wg.Done()
			for _, item := range chunk {
				fn(item)
			}
		}(items[start:min(start+chunkSize, count)])
	}
	wg.Wait()
}
