package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wal-segment/internal/pageformat"
	"wal-segment/internal/segment"
)

// verifyCmd represents the verify command.
var verifyCmd = &cobra.Command{
	Use:          "verify",
	Short:        "Walks every page of a segment file and reports the first broken page.",
	Long:         `Walks every page of a segment file and reports the first broken page.`,
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
					fmt.Printf("%d pages verified, all valid.\n", pageIndex)
					return nil
				}
				return fmt.Errorf("reading page %d: %w", pageIndex, err)
			}
			if !pageformat.VerifyPage(page) {
				return fmt.Errorf("page %d: %w", pageIndex, segment.ErrPageBroken)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
