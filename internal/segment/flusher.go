package segment

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"wal-segment/internal/lsn"
	"wal-segment/internal/pageformat"
)

// flushTask is a one-shot request submitted to the flusher's single-threaded
// executor. resultCh carries the outcome back to a synchronous caller,
// the idiomatic Go analogue of "submit a task and block on its future."
type flushTask struct {
	resultCh chan error
}

// Flusher is the single-consumer background task that drains the append
// buffer, materializes pages, writes them to the file, optionally fsyncs,
// and publishes flushed/written LSNs. Only this goroutine performs page
// writes, per spec.md §5's single-threaded-flusher rule — no locking is
// needed around the file cursor during a flush because of it.
type Flusher struct {
	order         uint64
	cfg           Config
	outer         Outer
	buf           *buffer
	fh            *FileHandleManager
	recordFlushed func(lsn.LSN)

	flushDirty atomic.Bool

	taskCh   chan flushTask
	shutdown chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool

	// pendingLSNToFlush is touched only by the executor goroutine, so it
	// needs no synchronization of its own.
	pendingLSNToFlush lsn.LSN
	havePendingLSN    bool
}

// NewFlusher creates a flusher for one segment. It does not start its
// background goroutine until StartFlush is called.
func NewFlusher(order uint64, cfg Config, outer Outer, buf *buffer, fh *FileHandleManager, recordFlushed func(lsn.LSN)) *Flusher {
	return &Flusher{
		order:         order,
		cfg:           cfg,
		outer:         outer,
		buf:           buf,
		fh:            fh,
		recordFlushed: recordFlushed,
	}
}

// MarkDirty records that the append buffer has unflushed data. Called by
// Segment.Append after pushing a new entry.
func (f *Flusher) MarkDirty() {
	f.flushDirty.Store(true)
}

// StartFlush starts the single-threaded executor goroutine and marks the
// segment active, preventing the File Handle Manager from auto-closing the
// handle while the flusher runs.
func (f *Flusher) StartFlush() {
	if !f.running.CompareAndSwap(false, true) {
		return
	}
	f.fh.SetActive(true)
	f.taskCh = make(chan flushTask)
	f.shutdown = make(chan struct{})
	f.wg.Add(1)
	go f.run()
}

// StopFlush shuts the executor down with a bounded wait. If flush is true,
// a final flush runs before shutdown. Exceeding the configured shutdown
// timeout returns ErrShutdownTimeout, which spec.md marks fatal at the
// segment level.
func (f *Flusher) StopFlush(flush bool) error {
	var flushErr error
	if flush {
		// Run the final flush while the executor (if any) is still up, so
		// it goes through the normal submit-and-wait path rather than
		// racing a directly-invoked flushOnce against the executor
		// goroutine.
		flushErr = f.Flush()
	}

	if !f.running.CompareAndSwap(true, false) {
		return flushErr
	}

	close(f.shutdown)
	f.fh.SetActive(false)

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(f.cfg.ShutdownTimeout):
		return errors.Join(flushErr, ErrShutdownTimeout)
	}
	return flushErr
}

// Flush submits a one-shot flush task to the executor and blocks until it
// completes, guaranteeing that by the time Flush returns, every record
// appended before this call is durable to the configured fsync policy.
func (f *Flusher) Flush() error {
	if !f.running.Load() {
		return f.flushOnce()
	}
	task := flushTask{resultCh: make(chan error, 1)}
	f.taskCh <- task
	return <-task.resultCh
}

func (f *Flusher) run() {
	defer f.wg.Done()

	var tickerC <-chan time.Time
	commitDelay := f.outer.CommitDelay()
	if commitDelay > 0 {
		ticker := time.NewTicker(commitDelay)
		defer ticker.Stop()
		tickerC = ticker.C
	}

	for {
		select {
		case <-tickerC:
			if err := f.flushOnce(); err != nil {
				logError("periodic flush failed: %s", err)
			}
		case task := <-f.taskCh:
			task.resultCh <- f.flushOnce()
		case <-f.shutdown:
			return
		}
	}
}

// flushOnce implements spec.md §4.4 steps 1 through 8. It is used both by
// the periodic ticker and by synchronous Flush calls — both share the same
// dirty-check/no-op-if-empty behavior, which is what makes repeated Flush
// calls with no new appends idempotent (property 9).
func (f *Flusher) flushOnce() error {
	if !f.flushDirty.Swap(false) {
		return nil
	}

	entries := f.buf.drain()
	if len(entries) == 0 {
		return nil
	}

	start := time.Now()
	err := f.writeEntries(entries)
	FlushDuration.Observe(time.Since(start).Seconds())
	f.outer.CheckFreeSpace()
	return err
}

func (f *Flusher) writeEntries(entries []Entry) error {
	firstEntry := entries[0]
	curPageIndex := firstEntry.WriteFrom / pageformat.PageSize

	f.fh.Lock()
	file, err := f.fh.GetFile()
	if err != nil {
		f.fh.Unlock()
		return err
	}
	fileInfo, err := file.Stat()
	if err != nil {
		f.fh.Unlock()
		return fmt.Errorf("stat-ing WAL segment file: %w", err)
	}
	fileLength := uint64(fileInfo.Size()) //nolint:gosec // file sizes stay well within uint64 range
	page := pageformat.NewPage()
	if fileLength/pageformat.PageSize > curPageIndex {
		// Preserve any bytes already written to this tail page by a prior
		// flush; see DESIGN.md's Open Question decision on this tail reload.
		if _, err := file.ReadAt(page, int64(curPageIndex*pageformat.PageSize)); err != nil && !errors.Is(err, io.EOF) { //nolint:gosec // page offsets stay well within int64 range
			f.fh.Unlock()
			return fmt.Errorf("loading the partially-written tail page: %w", err)
		}
	}
	f.fh.Unlock()

	pageIndex := curPageIndex
	var lastToFlush bool
	var lastEntryLSN lsn.LSN
	bytesWritten := 0

	for _, entry := range entries {
		pos := int(entry.WriteFrom % pageformat.PageSize) //nolint:gosec // page-relative offsets fit in int
		pageIndex = entry.WriteFrom / pageformat.PageSize
		entryLSN := lsn.LSN{Segment: f.order, Position: entry.WriteFrom}
		lastEntryLSN = entryLSN

		written := 0
		for written < len(entry.Payload) {
			chunkCap := pageformat.CalculateRecordSize(pageformat.PageSize - pos)
			chunkLen := min(chunkCap, len(entry.Payload)-written)
			from := written
			written += chunkLen
			isLast := written == len(entry.Payload)
			lastToFlush = true

			pos = pageformat.WriteChunkHeader(page, pos, isLast, entry.Payload[from:written])
			bytesWritten += chunkLen

			if pageformat.PageSize-pos <= pageformat.MinRecordSize {
				if err := f.writePage(file, pageIndex, page); err != nil {
					return err
				}
				if f.havePendingLSN {
					f.outer.SetWrittenLSN(f.pendingLSNToFlush)
				}
				f.pendingLSNToFlush = entryLSN
				f.havePendingLSN = true
				lastToFlush = false
				pageIndex++
				pos = pageformat.RecordsOffset
				page = pageformat.NewPage()
			}
		}
	}

	if lastToFlush {
		if err := f.writePage(file, pageIndex, page); err != nil {
			return err
		}
	}

	if f.cfg.SyncOnPageFlush {
		f.fh.Lock()
		err := file.Sync()
		f.fh.Unlock()
		if err != nil {
			return fmt.Errorf("fsyncing WAL segment file: %w", err)
		}
	}

	f.outer.SetFlushedLSN(lastEntryLSN)
	f.outer.SetWrittenLSN(lastEntryLSN)
	if f.recordFlushed != nil {
		f.recordFlushed(lastEntryLSN)
	}
	BytesFlushed.Add(float64(bytesWritten))
	return nil
}

func (f *Flusher) writePage(file SegmentFile, pageIndex uint64, page []byte) error {
	pageformat.FinalizePage(page)
	f.fh.Lock()
	defer f.fh.Unlock()
	if _, err := file.WriteAt(page, int64(pageIndex*pageformat.PageSize)); err != nil { //nolint:gosec // page offsets stay well within int64 range
		return fmt.Errorf("writing page %d: %w", pageIndex, err)
	}
	return nil
}
