package scanner

import "strings"

func chunk[T any](list []T, size int) [][]T {
	chunks := make([][]T, 0, (len(list)+size-1)/size)
	for start := 0; start < len(list); start += size {
		end := start + size
		if end > len(list) {
			end = len(list)
		}
		chunks = append(chunks, list[start:end])
	}
	return chunks
}

func walletKey(walletID string) string {
	return "wallet:" + walletID
}

func notesKey(walletID string) string {
	return "notes:" + walletID
}

func addressKey(address string) string {
	return "address:" + strings.ToLower(address)
}
