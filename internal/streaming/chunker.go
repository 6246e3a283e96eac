package streaming

// ChunkSlice chunks a slice into batches.
func ChunkSlice[T any](items []T, chunkSize int) [][]T {
	if chunkSize <= 0 {
		chunkSize = DefaultConfig().ChunkSize
	}

	var chunks [][]T
	for i := 0; i < len(items); i += chunkSize {
		end := i + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

// StreamSlice sends items in chunks of the stream's size, then done.
func StreamSlice[T any](stream *Stream, items []T, truncated bool) error {
	chunks := ChunkSlice(items, stream.ChunkSize())
	for i, chunk := range chunks {
		if err := stream.SendChunk(chunk, len(chunk), i < len(chunks)-1); err != nil {
			return err
		}
	}
	return stream.SendDone(truncated)
}
