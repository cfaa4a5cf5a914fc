package chat

import "time"

const (
	// DefaultGapThreshold is the inactivity gap that closes a session.
	DefaultGapThreshold = time.Hour
	// DefaultTitleLen is the number of runes of the first message used as
	// the session title.
	DefaultTitleLen = 10
)

// SegmentOptions control session boundaries and title derivation.
type SegmentOptions struct {
	GapThreshold time.Duration
	TitleLen     int
}

func (o SegmentOptions) withDefaults() SegmentOptions {
	if o.GapThreshold <= 0 {
		o.GapThreshold = DefaultGapThreshold
	}
	if o.TitleLen <= 0 {
		o.TitleLen = DefaultTitleLen
	}
	return o
}

// Segment partitions an ascending message log into sessions, breaking
// wherever the gap between consecutive messages exceeds the threshold.
//
// The input must already be ordered by CreatedAt ascending; Segment does not
// sort. Non-ascending input produces an unspecified grouping but never
// panics. The concatenation of the returned sessions' messages always equals
// the input — no message is dropped or duplicated.
func Segment(msgs []Message, opts SegmentOptions) []Session {
	if len(msgs) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	var sessions []Session
	var current []Message

	for _, msg := range msgs {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if msg.CreatedAt.Sub(prev.CreatedAt) > opts.GapThreshold {
				sessions = append(sessions, buildSession(current, opts.TitleLen))
				current = nil
			}
		}
		current = append(current, msg)
	}

	if len(current) > 0 {
		sessions = append(sessions, buildSession(current, opts.TitleLen))
	}

	return sessions
}

func buildSession(msgs []Message, titleLen int) Session {
	s := Session{
		Title:    deriveTitle(msgs[0].Content, titleLen),
		Messages: make([]Message, len(msgs)),
	}
	copy(s.Messages, msgs)
	return s
}

// deriveTitle truncates content to titleLen runes, appending an ellipsis
// when anything was cut off.
func deriveTitle(content string, titleLen int) string {
	runes := []rune(content)
	if len(runes) <= titleLen {
		return content
	}
	return string(runes[:titleLen]) + "…"
}
