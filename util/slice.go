package util

// InsertSlice inserts item(s) T at position pos and returns a slice
func InsertSlice[T any](arr []T, pos int, element ...T) []T {
	return append(arr[:pos], append(element, arr[pos:]...)...)
}

// ReverseInPlace reverses arr without allocating.
func ReverseInPlace[T any](arr []T) {
	for i, j := 0, len(arr)-1; i < j; i, j = i+1, j-1 {
		arr[i], arr[j] = arr[j], arr[i]
	}
}
