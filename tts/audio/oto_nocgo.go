//go:build nocgo
// +build nocgo

package audio

// OpenDevice always fails in builds without cgo.
func OpenDevice(sampleRate int) (Device, error) {
	return nil, ErrUnavailable
}
