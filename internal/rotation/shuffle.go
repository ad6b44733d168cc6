package rotation

// seedHash folds a seed string into a signed 32-bit hash with Java-style
// wraparound. Negative values are legal and feed the LCG as-is.
func seedHash(seed string) int32 {
	var h int32
	for _, r := range seed {
		h = h<<5 - h + int32(r)
	}
	return h
}

// Shuffle returns a stable permutation of items for the given seed: a
// right-to-left Fisher-Yates pass driven by a 9301/49297/233280 LCG seeded
// from the string hash. Two calls with the same seed and the same input
// order always produce the same output order. The input slice is not
// modified.
func Shuffle(items []string, seed string) []string {
	out := make([]string, len(items))
	copy(out, items)
	h := int64(seedHash(seed))
	for i := len(out) - 1; i > 0; i-- {
		h = (h*9301 + 49297) % 233280
		j := h
		if j < 0 {
			j = -j
		}
		j %= int64(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
