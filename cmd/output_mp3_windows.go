//go:build windows

package cmd

import "errors"

var errMP3Unsupported = errors.New("MP3 is not supported on Windows")

func checkMP3Rate(rate int) error {
	return errMP3Unsupported
}

func writeMP3(outputFile string, rate int, samples []int16) error {
	return errMP3Unsupported
}
