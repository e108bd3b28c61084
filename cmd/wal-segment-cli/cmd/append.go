package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"wal-segment/pkg/wal"
)

// noopOuter is the minimal Outer a single manually-driven segment needs:
// no commit-delay batching, no free-space policing, no cross-segment LSN
// bookkeeping.
type noopOuter struct{}

func (noopOuter) CommitDelay() time.Duration   { return 0 }
func (noopOuter) CheckFreeSpace()              {}
func (noopOuter) WrittenLSN() (wal.LSN, bool)  { return wal.LSN{}, false }
func (noopOuter) SetWrittenLSN(wal.LSN)        {}
func (noopOuter) SetFlushedLSN(wal.LSN)        {}
func (noopOuter) IncrementCacheOverflowCount() {}

// appendCmd represents the append command.
var appendCmd = &cobra.Command{
	Use:          "append",
	Short:        "Appends one record per line of stdin to a segment, for manual testing.",
	Long:         `Appends one record per line of stdin to a segment, for manual testing.`,
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		order, err := wal.OrdinalFromFileName(filepath.Base(segmentPath))
		if err != nil {
			return fmt.Errorf("determining segment ordinal from %q: %w", segmentPath, err)
		}

		scheduler := wal.NewCloserScheduler()
		seg := wal.New(segmentPath, order, wal.DefaultConfig(), noopOuter{}, scheduler, nil)
		if err := seg.Init(); err != nil {
			return fmt.Errorf("initializing segment: %w", err)
		}
		defer func() {
			if err := seg.Close(true); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}()

		scanner := bufio.NewScanner(os.Stdin)
		count := 0
		for scanner.Scan() {
			l, err := seg.Append(scanner.Bytes())
			if err != nil {
				return fmt.Errorf("appending record %d: %w", count, err)
			}
			fmt.Printf("appended at %s\n", l)
			count++
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
			return fmt.Errorf("reading stdin: %w", err)
		}

		if err := seg.Flush(); err != nil {
			return fmt.Errorf("flushing segment: %w", err)
		}
		fmt.Printf("appended %d records.\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appendCmd)
}
