// internal/service/reader.go
package service

import (
	"context"

	"serial-monitor/internal/protocol"
	"serial-monitor/pkg/framing"
)

// reader pulls bytes from the stream until cancelled or a fatal error.
// With a target set it is the Recorder: raw bytes also go to the file,
// which rotates once the interval elapses.
type reader struct {
	stream  protocol.Stream
	decoder framing.Decoder
	target  *RecordingTarget
	bufSize int

	onMessage func(framing.Message)
	onRotate  func(previous, current string)
}

// run returns nil when cancelled; any other return is fatal to the session
func (r *reader) run(ctx context.Context) error {
	buf := make([]byte, r.bufSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if r.target != nil {
			previous, rotated, err := r.target.RotateIfDue()
			if err != nil {
				return err
			}
			if rotated && r.onRotate != nil {
				r.onRotate(previous, r.target.Path())
			}
		}

		n, err := r.stream.Read(buf)
		if err != nil {
			return wrap(ErrReadFailure, err)
		}
		if n == 0 {
			continue
		}

		if r.target != nil {
			if err := r.target.Write(buf[:n]); err != nil {
				return err
			}
		}

		for _, msg := range r.decoder.Feed(buf[:n]) {
			r.onMessage(msg)
		}
	}
}
