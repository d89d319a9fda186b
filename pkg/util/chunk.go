package util

// Split slices message front to back into chunks of at most chunkSize bytes.
// Chunks share memory with message. An empty message yields no chunks.
func Split(message []byte, chunkSize int) [][]byte {
	if chunkSize <= 0 {
		panic("util: chunk size must be positive")
	}
	var chunk []byte
	chunks := make([][]byte, 0, len(message)/chunkSize+1)
	for len(message) >= chunkSize {
		chunk, message = message[:chunkSize:chunkSize], message[chunkSize:]
		chunks = append(chunks, chunk)
	}
	if len(message) > 0 {
		chunks = append(chunks, message)
	}
	return chunks
}

// Join concatenates chunks in order
func Join(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	ret := make([]byte, 0, total)
	for _, c := range chunks {
		ret = append(ret, c...)
	}
	return ret
}
