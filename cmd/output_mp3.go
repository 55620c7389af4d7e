//go:build !windows

package cmd

import (
	"bufio"
	"fmt"
	"os"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// mp3Bitrate is the fixed bitrate shine encodes at, in kbps.
const mp3Bitrate = 128

func checkMP3Rate(rate int) error {
	if mp3encoder.CheckConfig(rate, mp3Bitrate) < 0 {
		return fmt.Errorf("sample rate %d Hz is not supported by the MP3 encoder", rate)
	}
	return nil
}

func writeMP3(outputFile string, rate int, samples []int16) error {
	logger.Info("Output format is MP3")
	if err := checkMP3Rate(rate); err != nil {
		return err
	}

	mp3File, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("error creating MP3 file: %w", err)
	}
	defer mp3File.Close()

	mp3Encoder := mp3encoder.NewEncoder(rate, outputChannels)
	frameLen := int(mp3Encoder.Mpeg.GranulesPerFrame) * mp3encoder.GRANULE_SIZE

	// Encoder.Write steps through its input as if it were stereo and reads a
	// whole frame from the last chunk, so mono audio goes in one
	// silence-padded frame per call.
	padded := make([]int16, (len(samples)+frameLen-1)/frameLen*frameLen)
	copy(padded, samples)

	w := bufio.NewWriter(mp3File)
	for i := 0; i < len(padded); i += frameLen {
		if err := mp3Encoder.Write(w, padded[i:i+frameLen]); err != nil {
			return fmt.Errorf("error writing MP3 data: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("error writing MP3 data: %w", err)
	}
	return nil
}
