package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/braheezy/goeaxa/pkg/eaxa"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <input-file> <output-file>",
	Short: "Decode an EA-XA stream to 16 bit PCM",
	Long: fmt.Sprintf(`Decode a raw EA-XA ADPCM frame stream to 16 bit little-endian PCM.

By default the output is headerless PCM. Use --format to wrap the mono samples
in a container instead. An output file of "-" writes raw PCM to stdout.
The supported output formats are:
%v`, strings.Join(outputFormats, "\n")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decodeFile(cmd.OutOrStdout(), args[0], args[1], decodeOpts)
	},
}

// decodeOptions are the flags shared by decode and batch.
type decodeOptions struct {
	format  string
	rate    int
	skip    int64
	trimEnd int64
}

var decodeOpts decodeOptions

var outputFormats = []string{"raw", "wav", "flac", "mp3", "qoa"}

func init() {
	addDecodeFlags(decodeCmd, &decodeOpts)
	rootCmd.AddCommand(decodeCmd)
}

func addDecodeFlags(cmd *cobra.Command, opts *decodeOptions) {
	cmd.Flags().StringVarP(&opts.format, "format", "f", "raw", "Output format: "+strings.Join(outputFormats, ", "))
	cmd.Flags().IntVarP(&opts.rate, "rate", "r", 22050, "Sample rate in Hz written to container formats")
	cmd.Flags().Int64Var(&opts.skip, "skip", 0, "Bytes to drop from the start of the input")
	cmd.Flags().Int64Var(&opts.trimEnd, "trim-end", 0, "Bytes to drop from the end of the input")
}

func (opts decodeOptions) validate() error {
	if !slices.Contains(outputFormats, opts.format) {
		return fmt.Errorf("unsupported output format %q", opts.format)
	}
	if opts.rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", opts.rate)
	}
	if opts.skip < 0 || opts.trimEnd < 0 {
		return fmt.Errorf("--skip and --trim-end must not be negative")
	}
	if opts.format == "mp3" {
		return checkMP3Rate(opts.rate)
	}
	return nil
}

// openStream opens inputFile and limits it to the bytes between --skip and
// --trim-end. It returns the number of bytes the reader yields.
func openStream(inputFile string, opts decodeOptions) (*os.File, io.Reader, int64, error) {
	in, err := os.Open(inputFile)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("error opening input: %w", err)
	}

	stat, err := in.Stat()
	if err != nil {
		in.Close()
		return nil, nil, 0, fmt.Errorf("error reading input: %w", err)
	}

	length := stat.Size() - opts.skip - opts.trimEnd
	if length < 0 {
		in.Close()
		return nil, nil, 0, fmt.Errorf("--skip and --trim-end remove more than the %d byte input", stat.Size())
	}
	if _, err := in.Seek(opts.skip, io.SeekStart); err != nil {
		in.Close()
		return nil, nil, 0, fmt.Errorf("error reading input: %w", err)
	}

	return in, io.LimitReader(in, length), length, nil
}

// decodeFile decodes inputFile into outputFile in the requested format.
func decodeFile(stdout io.Writer, inputFile, outputFile string, opts decodeOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	in, src, length, err := openStream(inputFile, opts)
	if err != nil {
		return err
	}
	defer in.Close()

	samples := eaxa.DecodedLen(int(length))
	logger.Debug(
		inputFile,
		"size", formatSize(int(length)),
		"frames", length/eaxa.FrameSize,
		"samples", samples,
		"duration", formatDuration(sampleDuration(samples, opts.rate)),
	)

	if opts.format == "raw" {
		err = decodeRaw(stdout, src, outputFile)
	} else {
		err = decodeContainer(src, outputFile, opts)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", inputFile, err)
	}

	logger.Infof("Decoding completed: %s -> %s", inputFile, outputFile)
	return nil
}

// decodeRaw streams PCM frame by frame. Whole frames decoded before an error
// stay in the output.
func decodeRaw(stdout io.Writer, src io.Reader, outputFile string) error {
	logger.Info("Output format is raw PCM")

	var out io.Writer = stdout
	if outputFile != "-" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("error creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	var state eaxa.State
	n, decodeErr := state.Transcode(w, bufio.NewReader(src))
	if err := w.Flush(); err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}
	logger.Debug(outputFile, "size", formatSize(int(n)))
	return decodeErr
}

// decodeContainer decodes the whole stream and hands it to a container writer.
func decodeContainer(src io.Reader, outputFile string, opts decodeOptions) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	samples, err := eaxa.Decode(data)
	if err != nil {
		return err
	}

	switch opts.format {
	case "wav":
		return writeWAV(outputFile, opts.rate, samples)
	case "flac":
		return writeFLAC(outputFile, opts.rate, samples)
	case "mp3":
		return writeMP3(outputFile, opts.rate, samples)
	case "qoa":
		return writeQOA(outputFile, opts.rate, samples)
	}
	return fmt.Errorf("unsupported output format %q", opts.format)
}

func sampleDuration(samples, rate int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(rate)
}

// formatSize converts the inputSize to a human readable format
func formatSize(inputSize int) string {
	const unit = 1024
	if inputSize < unit {
		return fmt.Sprintf("%d B", inputSize)
	}
	div, exp := int64(unit), 0
	for n := inputSize / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(inputSize)/float64(div), "KMGTPE"[exp])
}

// formatDuration renders d as m:ss.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
