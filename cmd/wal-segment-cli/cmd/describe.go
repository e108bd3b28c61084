package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wal-segment/internal/pageformat"
)

// describeCmd represents the describe command.
var describeCmd = &cobra.Command{
	Use:          "describe",
	Short:        "Dumps the page and record-chunk structure of a segment file.",
	Long:         `Dumps the page and record-chunk structure of a segment file.`,
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		file, err := os.Open(segmentPath)
		if err != nil {
			return fmt.Errorf("opening %q: %w", segmentPath, err)
		}
		defer func() {
			_ = file.Close()
		}()

		page := pageformat.NewPage()
		for pageIndex := uint64(0); ; pageIndex++ {
			if _, err := file.ReadAt(page, int64(pageIndex*pageformat.PageSize)); err != nil { //nolint:gosec // segment files stay well within int64 range
				if errors.Is(err, io.EOF) {
					break
				}
				return fmt.Errorf("reading page %d: %w", pageIndex, err)
			}

			valid := pageformat.VerifyPage(page)
			fmt.Printf("Page %d: valid=%t free_space=%d\n", pageIndex, valid, pageformat.FreeSpace(page))
			if !valid {
				continue
			}

			pos := pageformat.RecordsOffset
			for pos+pageformat.ChunkHeaderSize <= pageformat.PageSize-pageformat.FreeSpace(page) {
				header := pageformat.ReadChunkHeader(page, pos)
				fmt.Printf("  chunk at %d: continues_next_page=%t is_last_chunk=%t content_length=%d\n",
					pos, header.ContinuesNextPage, header.IsLastChunk, header.ContentLength)
				pos += pageformat.ChunkHeaderSize + header.ContentLength
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
