package domain

// ByteProgress receives monotonically increasing (bytesDone, bytesTotal)
// pairs for one transfer. Callbacks run on the worker performing the
// transfer; single-threaded consumers marshal to their own loop.
type ByteProgress func(done, total int64)

// FileProgress receives (filesDone, filesTotal, currentName) events during a
// batch run.
type FileProgress func(done, total int, current string)

// AttemptRecorder is the persistence collaborator the client engines report
// endpoint attempts to. Implementations must tolerate concurrent calls.
// Recording is advisory and never gates a transfer.
type AttemptRecorder interface {
	RecordAttempt(endpoint string, ok bool)
}

// NopRecorder discards attempt reports.
type NopRecorder struct{}

func (NopRecorder) RecordAttempt(string, bool) {}
