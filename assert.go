package bitring

// assert panics when cond is false and the bitring_debug tag is set.
// Without the tag debugAssertions is a false constant and calls compile away.
func assert(cond bool, msg string) {
	if debugAssertions && !cond {
		panic("bitring: contract violation: " + msg)
	}
}
