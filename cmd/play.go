package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/braheezy/goeaxa/pkg/eaxa"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <file/directories>",
	Short: "Play EA-XA stream(s)",
	Long: `Provide one or more EA-XA streams or directories to play. Streams are played as mono at --rate.

Raw EA-XA has no magic number, so a file counts as a stream when its length is
a whole number of frames and every frame header is valid. Directories are only
searched for files ending in ` + strings.Join(streamExtensions, " or ") + `.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		allFiles := collectStreams(args)
		if len(allFiles) == 0 {
			return errors.New("no valid EA-XA streams found")
		}
		if playRate <= 0 {
			return fmt.Errorf("invalid sample rate %d", playRate)
		}
		if playMinimal {
			return startMinimalPlayer(allFiles[0], playRate)
		}
		return startTUI(allFiles, playRate)
	},
}

// streamExtensions limits which files a directory search probes.
var streamExtensions = []string{".xa", ".eaxa"}

var playRate int
var playMinimal bool

func init() {
	playCmd.Flags().IntVarP(&playRate, "rate", "r", 22050, "Playback sample rate in Hz")
	playCmd.Flags().BoolVar(&playMinimal, "minimal", false, "Play the first stream without the interactive UI")
	rootCmd.AddCommand(playCmd)
}

// collectStreams expands the arguments into a list of decodable streams.
// Directories are searched recursively.
func collectStreams(args []string) []string {
	var allFiles []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			logger.Errorf("Error accessing %s: %v", arg, err)
			continue
		}
		if info.IsDir() {
			files, err := findAllStreams(arg)
			if err != nil {
				logger.Errorf("Error walking %s: %v", arg, err)
				continue
			}
			allFiles = append(allFiles, files...)
		} else {
			valid, err := eaxa.IsValidStream(arg)
			if err != nil {
				logger.Errorf("Error checking file %s: %v", arg, err)
				continue
			}
			if valid {
				allFiles = append(allFiles, arg)
			}
		}
	}
	return allFiles
}

// Recursive function to find all valid EA-XA streams
func findAllStreams(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && slices.Contains(streamExtensions, strings.ToLower(filepath.Ext(path))) {
			valid, _ := eaxa.IsValidStream(path)
			if valid {
				files = append(files, path)
			}
		}
		return nil
	})
	return files, err
}
