package logger

import (
	"strings"

	"github.com/nulzo/calx-web/internal/cli"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// coloredConsoleEncoder wraps zap's console encoder and highlights the trailing JSON field blob.
type coloredConsoleEncoder struct {
	zapcore.Encoder
}

func NewColoredConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &coloredConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
	}
}

func (c *coloredConsoleEncoder) Clone() zapcore.Encoder {
	return &coloredConsoleEncoder{
		Encoder: c.Encoder.Clone(),
	}
}

func (c *coloredConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}

	// the console encoder separates the header from the fields with "\t{"
	line := buf.String()
	idx := strings.Index(line, "\t{")
	if idx == -1 {
		return buf, nil
	}

	out := bufferPool.Get()
	out.AppendString(line[:idx+1])
	out.AppendString(cli.HighlightJSON(line[idx+1:]))
	buf.Free()

	return out, nil
}
