// Package session implements SAIL's input/output session state machine
// (spec §4.7). It is grounded on the teacher's core.Processor retry loop
// and core/processor.go's error-propagation style, generalized from a
// single decode-then-pipeline call into the Idle/Active/Failed machine
// spec §4.7 requires.
package session

import (
	"context"
	"time"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/obslog"
)

// State is one of the three states in spec §4.7's diagram.
type State int

const (
	Idle State = iota
	Active
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Active:
		return "ACTIVE"
	case Failed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Resolver is the subset of registry.Registry a session needs: looking
// up a codec record by hint, path, or magic bytes. Defined here (rather
// than importing the registry package's concrete type) to keep session
// decoupled from registry's filesystem-discovery concerns.
type Resolver interface {
	ByExtension(ext string) (*codec.Record, error)
	ByPath(path string) (*codec.Record, error)
	ByMagic(ctx context.Context, s iostream.Stream) (*codec.Record, codec.FrameHeader, error)
}

// Source identifies where a session's bytes come from (spec §6's
// "path | byte span | custom I/O" union).
type Source struct {
	Path   string
	Bytes  []byte
	Stream iostream.Stream // caller-owned; not closed by Stop
}

func (s Source) hasStream() bool { return s.Stream != nil }

// openRead opens the read-side I/O stream appropriate to the Source's flavor. It
// returns whether SAIL owns the stream (and must Close it on Stop).
func (s Source) openRead() (iostream.Stream, bool, error) {
	switch {
	case s.hasStream():
		return s.Stream, false, nil
	case len(s.Bytes) > 0:
		return iostream.NewMemoryReader(s.Bytes), true, nil
	case s.Path != "":
		f, err := iostream.OpenFile(s.Path)
		if err != nil {
			return nil, false, err
		}
		return f, true, nil
	default:
		return nil, false, apperrors.New(apperrors.InvalidArgument, "session.source.openread", nil)
	}
}

func (s Source) openWrite() (iostream.Stream, bool, error) {
	switch {
	case s.hasStream():
		return s.Stream, false, nil
	case s.Path != "":
		f, err := iostream.CreateFile(s.Path)
		if err != nil {
			return nil, false, err
		}
		return f, true, nil
	default:
		return nil, false, apperrors.New(apperrors.InvalidArgument, "session.source.openwrite", nil)
	}
}

// StartOptions bundles start's optional arguments (spec §4.7's
// "[, codec-hint] [, options]").
type StartOptions struct {
	CodecHint string // file extension looked up with ByExtension (e.g. "jpg"); wins silently over path-derived hints (spec §4.7 edge cases)
}

func resolveCodec(reg Resolver, src Source, hint string, ctx context.Context, stream iostream.Stream) (*codec.Record, error) {
	if hint != "" {
		return reg.ByExtension(hint)
	}
	if src.Path != "" {
		if rec, err := reg.ByPath(src.Path); err == nil {
			return rec, nil
		}
	}
	rec, _, err := reg.ByMagic(ctx, stream)
	return rec, err
}

// InputSession is a decode-side session (spec §4.7).
type InputSession struct {
	state      State
	registry   Resolver
	hook       obslog.Hook
	logger     obslog.Logger
	record     *codec.Record
	readState  codec.ReadState
	stream     iostream.Stream
	ownsStream bool
	pendingErr error
	startedAt  time.Time
	codecName  string
	maxRetries int
	retryDelay time.Duration
}

// NewInputSession constructs an Idle InputSession bound to reg.
func NewInputSession(reg Resolver, opts ...Option) *InputSession {
	s := &InputSession{registry: reg, logger: obslog.NoopLogger{}}
	for _, o := range opts {
		o.applyInput(s)
	}
	return s
}

// Option configures a session at construction time.
type Option interface {
	applyInput(*InputSession)
	applyOutput(*OutputSession)
}

type hookOption struct{ h obslog.Hook }

func (o hookOption) applyInput(s *InputSession)   { s.hook = o.h }
func (o hookOption) applyOutput(s *OutputSession)  { s.hook = o.h }

// WithHook injects a session lifecycle observer.
func WithHook(h obslog.Hook) Option { return hookOption{h: h} }

type loggerOption struct{ l obslog.Logger }

func (o loggerOption) applyInput(s *InputSession)  { s.logger = o.l }
func (o loggerOption) applyOutput(s *OutputSession) { s.logger = o.l }

// WithLogger injects a structured logger.
func WithLogger(l obslog.Logger) Option { return loggerOption{l: l} }

type retryOption struct {
	maxRetries int
	delay      time.Duration
}

func (o retryOption) applyInput(s *InputSession) {
	s.maxRetries, s.retryDelay = o.maxRetries, o.delay
}
func (o retryOption) applyOutput(s *OutputSession) {
	s.maxRetries, s.retryDelay = o.maxRetries, o.delay
}

// WithRetry retries a frame operation up to maxRetries times, waiting delay
// between attempts, when the plugin reports a retryable (transient) error
// such as InterruptedIo. Non-retryable errors fail immediately, same as
// maxRetries == 0. Grounded on the teacher's core.Processor.runWithRetry.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return retryOption{maxRetries: maxRetries, delay: delay}
}

// Start resolves the codec, opens the I/O stream, validates opts against
// the codec's read features, and invokes read_init (spec §4.7).
func (s *InputSession) Start(ctx context.Context, src Source, so StartOptions, opts codec.ReadOptions) error {
	if s.state != Idle {
		return apperrors.New(apperrors.ConflictingOperation, "session.input.start", nil)
	}

	stream, owns, err := src.openRead()
	if err != nil {
		return err
	}

	rec, err := resolveCodec(s.registry, src, so.CodecHint, ctx, stream)
	if err != nil {
		if owns {
			_ = stream.Close()
		}
		return err
	}

	effective := opts
	if effective.OutputPixelFormat == 0 {
		effective = rec.Read.DefaultReadOptions()
	}
	if err := effective.Validate(rec.Read); err != nil {
		if owns {
			_ = stream.Close()
		}
		return err
	}

	readState, err := rec.Plugin.ReadInit(ctx, stream, effective)
	if err != nil {
		if owns {
			_ = stream.Close()
		}
		return err
	}

	s.stream = stream
	s.ownsStream = owns
	s.record = rec
	s.readState = readState
	s.state = Active
	s.startedAt = time.Now()
	s.codecName = rec.Description
	s.pendingErr = nil
	if s.hook != nil {
		s.hook.OnStart(s.codecName)
	}
	return nil
}

// NextFrame invokes read_seek_next_frame then read_frame, yielding
// ownership of a freshly decoded Image to the caller. NoMoreFrames is
// propagated without changing state (spec §4.7).
func (s *InputSession) NextFrame(ctx context.Context) (*codec.Image, error) {
	if s.state != Active {
		return nil, apperrors.New(apperrors.StateNull, "session.input.nextframe", nil)
	}
	header, err := retryFrameOp(ctx, s.maxRetries, s.retryDelay, func() (codec.FrameHeader, error) {
		return s.record.Plugin.ReadSeekNextFrame(ctx, s.readState)
	})
	if err != nil {
		if !apperrors.IsKind(err, apperrors.NoMoreFrames) {
			s.fail(err)
		}
		return nil, err
	}

	img := &codec.Image{
		Width:       header.Width,
		Height:      header.Height,
		PixelFormat: header.PixelFormat,
		Delay:       header.Delay,
		Interlaced:  header.Interlaced,
		PagesTotal:  header.PagesTotal,
	}
	readFrame := func() (struct{}, error) {
		return struct{}{}, s.record.Plugin.ReadFrame(ctx, s.readState, img)
	}
	if _, err := retryFrameOp(ctx, s.maxRetries, s.retryDelay, readFrame); err != nil {
		s.fail(err)
		return nil, err
	}
	if s.hook != nil {
		s.hook.OnFrame(s.codecName, int64(len(img.Pixels)))
	}
	return img, nil
}

// PeekFrame invokes read_seek_next_frame only, yielding the next frame's
// header without decoding pixel data. Probing must never touch pixel data
// (spec §4.7/Glossary); callers that also need pixels should call
// NextFrame instead. NoMoreFrames is propagated without changing state.
func (s *InputSession) PeekFrame(ctx context.Context) (codec.FrameHeader, error) {
	if s.state != Active {
		return codec.FrameHeader{}, apperrors.New(apperrors.StateNull, "session.input.peekframe", nil)
	}
	header, err := retryFrameOp(ctx, s.maxRetries, s.retryDelay, func() (codec.FrameHeader, error) {
		return s.record.Plugin.ReadSeekNextFrame(ctx, s.readState)
	})
	if err != nil {
		if !apperrors.IsKind(err, apperrors.NoMoreFrames) {
			s.fail(err)
		}
		return codec.FrameHeader{}, err
	}
	return header, nil
}

// retryFrameOp retries op up to maxRetries times, waiting delay between
// attempts, but only when op fails with a retryable error (spec §7's
// InterruptedIo and similar transient conditions). Grounded on the
// teacher's core.Processor.runWithRetry.
func retryFrameOp[T any](ctx context.Context, maxRetries int, delay time.Duration, op func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for i := 0; i <= maxRetries; i++ {
		result, err = op()
		if err == nil || !apperrors.IsRetryable(err) {
			return result, err
		}
		if i < maxRetries {
			select {
			case <-ctx.Done():
				var zero T
				return zero, apperrors.Wrap(apperrors.InterruptedIo, "session.retry", ctx.Err())
			case <-time.After(delay):
			}
		}
	}
	return result, err
}

func (s *InputSession) fail(err error) {
	s.pendingErr = err
	s.state = Failed
}

// Stop invokes read_finish and releases the I/O stream (unless
// caller-owned), transitioning to Idle. Idempotent on Idle. The "first
// error wins" discipline (spec §4.7): a pending error from a failed
// NextFrame is preserved and returned even if Stop's own cleanup also
// errors (logged, not returned).
func (s *InputSession) Stop(ctx context.Context) error {
	if s.state == Idle {
		return nil
	}
	first := s.pendingErr
	var finishErr error
	if s.record != nil {
		finishErr = s.record.Plugin.ReadFinish(ctx, s.readState)
	}
	if s.ownsStream && s.stream != nil {
		if err := s.stream.Close(); err != nil && finishErr == nil {
			finishErr = err
		}
	}
	if first == nil && finishErr != nil {
		first = finishErr
	} else if first != nil && finishErr != nil {
		s.logger.Warn("session.input.stop.secondary_error", "error", finishErr.Error())
	}

	d := time.Since(s.startedAt)
	if s.hook != nil {
		s.hook.OnStop(s.codecName, d, first)
	}

	s.state = Idle
	s.readState = nil
	s.stream = nil
	s.record = nil
	s.pendingErr = nil
	return first
}

// Record returns the resolved codec record once Start has succeeded.
func (s *InputSession) Record() *codec.Record { return s.record }

// State reports the session's current state.
func (s *InputSession) State() State { return s.state }

// OutputSession is an encode-side session (spec §4.7).
type OutputSession struct {
	state       State
	registry    Resolver
	hook        obslog.Hook
	logger      obslog.Logger
	record      *codec.Record
	writeState  codec.WriteState
	stream      iostream.Stream
	ownsStream  bool
	pendingErr  error
	startedAt   time.Time
	codecName   string
	writeOpts   codec.WriteOptions
	bytesBefore int64
	maxRetries  int
	retryDelay  time.Duration
}

// NewOutputSession constructs an Idle OutputSession bound to reg.
func NewOutputSession(reg Resolver, opts ...Option) *OutputSession {
	s := &OutputSession{registry: reg, logger: obslog.NoopLogger{}}
	for _, o := range opts {
		o.applyOutput(s)
	}
	return s
}

// Start resolves the codec, opens the I/O stream, validates opts against
// the codec's write features, and invokes write_init (spec §4.7).
func (s *OutputSession) Start(ctx context.Context, dst Source, so StartOptions, opts codec.WriteOptions) error {
	if s.state != Idle {
		return apperrors.New(apperrors.ConflictingOperation, "session.output.start", nil)
	}

	var rec *codec.Record
	var err error
	if so.CodecHint != "" {
		rec, err = s.registry.ByExtension(so.CodecHint)
	} else if dst.Path != "" {
		rec, err = s.registry.ByPath(dst.Path)
	} else {
		err = apperrors.New(apperrors.InvalidArgument, "session.output.start", nil)
	}
	if err != nil {
		return err
	}

	effective := opts
	if effective.OutputPixelFormat == 0 {
		effective = rec.Write.DefaultWriteOptions()
	}
	if err := effective.Validate(rec.Write); err != nil {
		return err
	}

	stream, owns, err := dst.openWrite()
	if err != nil {
		return err
	}

	writeState, err := rec.Plugin.WriteInit(ctx, stream, effective)
	if err != nil {
		if owns {
			_ = stream.Close()
		}
		return err
	}

	s.stream = stream
	s.ownsStream = owns
	s.record = rec
	s.writeState = writeState
	s.writeOpts = effective
	s.state = Active
	s.startedAt = time.Now()
	s.codecName = rec.Description
	s.pendingErr = nil
	if pos, err := stream.Tell(); err == nil {
		s.bytesBefore = pos
	}
	if s.hook != nil {
		s.hook.OnStart(s.codecName)
	}
	return nil
}

// NextFrame validates img against the session's options and invokes
// write_seek_next_frame then write_frame (spec §4.7).
func (s *OutputSession) NextFrame(ctx context.Context, img *codec.Image) error {
	if s.state != Active {
		return apperrors.New(apperrors.StateNull, "session.output.nextframe", nil)
	}
	if err := img.Validate(); err != nil {
		s.fail(err)
		return err
	}
	seekNext := func() (struct{}, error) {
		return struct{}{}, s.record.Plugin.WriteSeekNextFrame(ctx, s.writeState, img)
	}
	if _, err := retryFrameOp(ctx, s.maxRetries, s.retryDelay, seekNext); err != nil {
		s.fail(err)
		return err
	}
	writeFrame := func() (struct{}, error) {
		return struct{}{}, s.record.Plugin.WriteFrame(ctx, s.writeState, img)
	}
	if _, err := retryFrameOp(ctx, s.maxRetries, s.retryDelay, writeFrame); err != nil {
		s.fail(err)
		return err
	}
	if s.hook != nil {
		s.hook.OnFrame(s.codecName, int64(len(img.Pixels)))
	}
	return nil
}

func (s *OutputSession) fail(err error) {
	s.pendingErr = err
	s.state = Failed
}

// Stop invokes write_finish and releases the I/O stream (unless
// caller-owned), returning the cumulative bytes written for
// memory-backed writing (spec §4.7) and transitioning to Idle.
func (s *OutputSession) Stop(ctx context.Context) (int64, error) {
	if s.state == Idle {
		return 0, nil
	}
	first := s.pendingErr
	var finishErr error
	if s.record != nil {
		finishErr = s.record.Plugin.WriteFinish(ctx, s.writeState)
	}

	var written int64
	if s.stream != nil {
		if pos, err := s.stream.Tell(); err == nil {
			written = pos - s.bytesBefore
		}
	}

	if s.ownsStream && s.stream != nil {
		if err := s.stream.Close(); err != nil && finishErr == nil {
			finishErr = err
		}
	}
	if first == nil && finishErr != nil {
		first = finishErr
	} else if first != nil && finishErr != nil {
		s.logger.Warn("session.output.stop.secondary_error", "error", finishErr.Error())
	}

	d := time.Since(s.startedAt)
	if s.hook != nil {
		s.hook.OnStop(s.codecName, d, first)
	}

	s.state = Idle
	s.writeState = nil
	s.stream = nil
	s.record = nil
	s.pendingErr = nil
	return written, first
}

// Record returns the resolved codec record once Start has succeeded.
func (s *OutputSession) Record() *codec.Record { return s.record }

// State reports the session's current state.
func (s *OutputSession) State() State { return s.state }
