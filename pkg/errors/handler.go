package errors

import (
	stderrors "errors"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// stackDepth bounds the frames kept by CaptureStack.
const stackDepth = 32

var (
	// DefaultHandler receives every report. It starts as a non-verbose
	// LogHandler.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler installs h as the global handler and returns the handler it
// replaced, so tests and tools can restore it. Nil installs a fresh
// LogHandler.
func SetHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = &LogHandler{}
	}
	handlerMu.Lock()
	defer handlerMu.Unlock()
	prev := DefaultHandler
	DefaultHandler = h
	return prev
}

// dispatch stamps the report and hands it to the current handler.
func dispatch(stamp *time.Time, deliver func(ErrorHandler)) {
	if stamp.IsZero() {
		*stamp = time.Now()
	}
	handlerMu.RLock()
	h := DefaultHandler
	handlerMu.RUnlock()
	if h != nil {
		deliver(h)
	}
}

// Report sends err to the global handler, stamping it if needed.
func Report(err *FiberError) {
	if err != nil {
		dispatch(&err.Timestamp, func(h ErrorHandler) { h.HandleError(err) })
	}
}

// ReportPanic sends a recovered panic to the global handler.
func ReportPanic(err *PanicError) {
	if err != nil {
		dispatch(&err.Timestamp, func(h ErrorHandler) { h.HandlePanic(err) })
	}
}

// ReportBuildError sends a failed component render to the global handler.
func ReportBuildError(err *BuildError) {
	if err != nil {
		dispatch(&err.Timestamp, func(h ErrorHandler) { h.HandleBuildError(err) })
	}
}

// ReportAny routes err to the matching handler method. Errors that are
// neither a BuildError nor a FiberError are wrapped with op and KindUnknown.
func ReportAny(op string, err error) {
	if err == nil {
		return
	}
	var buildErr *BuildError
	if stderrors.As(err, &buildErr) {
		ReportBuildError(buildErr)
		return
	}
	var fiberErr *FiberError
	if stderrors.As(err, &fiberErr) {
		Report(fiberErr)
		return
	}
	Report(&FiberError{Op: op, Kind: KindUnknown, Err: err})
}

// Recover reports a panic in progress as a PanicError for op. It must be
// deferred directly:
//
//	defer errors.Recover("idle.Loop.Frame")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(&PanicError{
			Op:         op,
			Value:      r,
			StackTrace: CaptureStack(),
		})
	}
}

// CaptureStack formats the caller's stack, one "function\n\tfile:line"
// entry per frame. Frames inside the runtime package are left out.
func CaptureStack() string {
	var pcs [stackDepth]uintptr
	n := runtime.Callers(2, pcs[:])
	if n == 0 {
		return ""
	}

	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			sb.WriteString(frame.Function)
			sb.WriteString("\n\t")
			sb.WriteString(frame.File)
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(frame.Line))
			sb.WriteByte('\n')
		}
		if !more {
			break
		}
	}
	return sb.String()
}
