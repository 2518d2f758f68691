//go:build bitring_debug

package bitring

const debugAssertions = true
