package utils

// CloneSlice returns a copy of s that shares no backing array with it. A nil slice stays nil.
func CloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
