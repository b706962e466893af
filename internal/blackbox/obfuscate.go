package blackbox

// obfuscate replaces every byte with the running sum of all bytes up to and
// including it, modulo 256.
func obfuscate(in []byte) []byte {
	out := make([]byte, len(in))
	var sum byte
	for i, c := range in {
		sum += c
		out[i] = sum
	}
	return out
}

// deobfuscate inverts obfuscate by taking successive differences.
func deobfuscate(in []byte) []byte {
	out := make([]byte, len(in))
	var prev byte
	for i, c := range in {
		out[i] = c - prev
		prev = c
	}
	return out
}
