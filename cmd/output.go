package cmd

import (
	"fmt"
	"os"

	"github.com/braheezy/qoa"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// EA-XA streams are mono; channel de-interleaving is left to the container layer.
const outputChannels = 1

func writeWAV(outputFile string, rate int, samples []int16) error {
	logger.Info("Output format is WAV")
	// Convert int16 to int for WAV conversion
	intAudioData := make([]int, len(samples))
	for i, val := range samples {
		intAudioData[i] = int(val)
	}

	wavBuffer := &audio.IntBuffer{
		Data:           intAudioData,
		Format:         &audio.Format{SampleRate: rate, NumChannels: outputChannels},
		SourceBitDepth: 16,
	}
	wavFile, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("error creating WAV file: %w", err)
	}
	defer wavFile.Close()

	wavEncoder := wav.NewEncoder(wavFile, rate, 16, outputChannels, 1)
	if err = wavEncoder.Write(wavBuffer); err != nil {
		return fmt.Errorf("error writing WAV data: %w", err)
	}
	if err = wavEncoder.Close(); err != nil {
		return fmt.Errorf("error writing WAV data: %w", err)
	}
	return nil
}

// flacBlockSize is the number of samples per verbatim FLAC frame.
const flacBlockSize = 4096

func writeFLAC(outputFile string, rate int, samples []int16) error {
	logger.Info("Output format is FLAC")
	flacFile, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("error creating FLAC file: %w", err)
	}
	defer flacFile.Close()

	flacEnc, err := flac.NewEncoder(flacFile, &meta.StreamInfo{
		SampleRate:    uint32(rate),
		NChannels:     outputChannels,
		BitsPerSample: 16,
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize FLAC encoder: %w", err)
	}

	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred:   frame.PredVerbatim,
			Order:  0,
			Wasted: 0,
		},
		Samples: make([]int32, flacBlockSize),
	}

	for start := 0; start < len(samples); start += flacBlockSize {
		end := min(start+flacBlockSize, len(samples))
		block := samples[start:end]

		subframe.NSamples = len(block)
		subframe.Samples = subframe.Samples[:len(block)]
		for i, sample := range block {
			subframe.Samples[i] = int32(sample)
		}

		frameData := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: false,
				BlockSize:         uint16(len(block)),
				SampleRate:        uint32(rate),
				Channels:          frame.ChannelsMono,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{subframe},
		}
		if err := flacEnc.WriteFrame(frameData); err != nil {
			return fmt.Errorf("error writing FLAC frame: %w", err)
		}
	}

	if err := flacEnc.Close(); err != nil {
		return fmt.Errorf("error closing FLAC encoder: %w", err)
	}
	return nil
}

func writeQOA(outputFile string, rate int, samples []int16) error {
	logger.Info("Output format is QOA")
	q := qoa.NewEncoder(uint32(rate), outputChannels, uint32(len(samples)))
	qoaEncodedData, err := q.Encode(samples)
	if err != nil {
		return fmt.Errorf("error encoding audio data to QOA: %w", err)
	}

	if err := os.WriteFile(outputFile, qoaEncodedData, 0o644); err != nil {
		return fmt.Errorf("error writing QOA data: %w", err)
	}
	logger.Debug(outputFile, "size", formatSize(len(qoaEncodedData)))
	return nil
}
