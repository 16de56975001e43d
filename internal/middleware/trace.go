package middleware

import (
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mentorbot/internal/mentor"
)

// Trace writes one JSON line per middleware decision. Lines carry the
// session, the learner, the text the middleware saw and the text it left,
// with rough token counts so a rewrite's savings show up in the file.
type Trace struct {
	log *zap.Logger
}

func NewTrace(w io.Writer) *Trace {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.MessageKey = "event"
	enc.LevelKey = zapcore.OmitKey
	enc.CallerKey = zapcore.OmitKey
	enc.StacktraceKey = zapcore.OmitKey
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)
	return &Trace{log: zap.New(core)}
}

type step struct {
	id       string
	priority int
	skipped  bool
	before   string
	after    string
	dec      Decision
}

func (t *Trace) record(e *Event, s step) {
	if t == nil {
		return
	}
	in, out := estimateTokens(s.before), estimateTokens(s.after)
	fields := []zap.Field{
		zap.String("middleware", s.id),
		zap.Int("priority", s.priority),
		zap.Int("in_chars", utf8.RuneCountInString(s.before)),
		zap.Int("out_chars", utf8.RuneCountInString(s.after)),
		zap.Int("in_tokens_est", in),
		zap.Int("out_tokens_est", out),
		zap.Int("saved_tokens_est", in-out),
	}
	if id := e.SessionID(); id != "" {
		fields = append(fields, zap.String("session", id))
	}
	if learner, _ := e.Context[CtxLearnerID].(string); learner != "" {
		fields = append(fields, zap.String("learner", learner))
	}
	if a, _ := e.Context[CtxMentorAction].(*mentor.Action); a != nil {
		fields = append(fields, zap.String("action", string(a.Type)))
	}
	if s.skipped {
		fields = append(fields, zap.Bool("skipped", true))
	}
	if s.dec.Reason != "" {
		fields = append(fields, zap.String("reason", s.dec.Reason))
	}
	if s.dec.Cancel {
		fields = append(fields, zap.Bool("cancel", true))
	}
	t.log.Info(string(e.Name), fields...)
}

// estimateTokens counts words and punctuation marks, but never less than
// one token per four characters.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	n := 0
	inWord := false
	for _, r := range s {
		switch {
		case isWordRune(r):
			if !inWord {
				n++
			}
			inWord = true
		case strings.ContainsRune(" \t\r\n", r):
			inWord = false
		default:
			n++
			inWord = false
		}
	}
	floor := int(math.Ceil(float64(utf8.RuneCountInString(s)) / 4))
	return max(n, floor)
}

func isWordRune(r rune) bool {
	return r == '_' || r == '\'' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') || r > utf8.RuneSelf
}
