package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch <output-dir> <input-files...>",
	Short: "Decode several EA-XA streams in parallel",
	Long: `Decode each input file into the output directory. Every file is an
independent stream with its own decoder state. Output files keep the input
base name with the extension of the output format (.pcm for raw).`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decodeBatch(args[0], args[1:], batchOpts, batchJobs)
	},
}

var batchOpts decodeOptions
var batchJobs int

func init() {
	addDecodeFlags(batchCmd, &batchOpts)
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", runtime.NumCPU(), "Number of files decoded at once")
	rootCmd.AddCommand(batchCmd)
}

// batchOutputName maps an input path to its file name in the output directory.
func batchOutputName(inputFile, format string) string {
	base := filepath.Base(inputFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	ext := format
	if format == "raw" {
		ext = "pcm"
	}
	return base + "." + ext
}

// decodeBatch decodes every input, continuing past failures, and returns the
// first error encountered.
func decodeBatch(outputDir string, inputs []string, opts decodeOptions, jobs int) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if jobs < 1 {
		return fmt.Errorf("invalid job count %d", jobs)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	seen := make(map[string]string, len(inputs))
	for _, input := range inputs {
		name := batchOutputName(input, opts.format)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both decode to %s", prev, input, name)
		}
		seen[name] = input
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	for _, input := range inputs {
		outputFile := filepath.Join(outputDir, batchOutputName(input, opts.format))
		g.Go(func() error {
			err := decodeFile(nil, input, outputFile, opts)
			if err != nil {
				logger.Error("Decoding failed", "err", err)
			}
			return err
		})
	}
	return g.Wait()
}
