package dateconv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
)

const (
	// PermanentEpoch is 9999-12-31 23:59:59.999 UTC and means "never expires".
	PermanentEpoch int64 = 253402300799999

	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"

	InvalidDate = "Invalid Date"
	Permanent   = "Permanent"
)

// Codec converts between epoch milliseconds and calendar strings in one location.
type Codec struct {
	loc *time.Location
}

// New returns a codec for loc; a nil loc means time.Local.
func New(loc *time.Location) Codec {
	if loc == nil {
		loc = time.Local
	}
	return Codec{loc: loc}
}

// LoadLocation accepts "", "Local", "UTC" or an IANA zone name.
func LoadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	default:
		return time.LoadLocation(name)
	}
}

func (c Codec) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// EpochMillis parses s with layout. On failure it returns 0 and an
// apperr.ErrFormat error; callers must read 0 as "unparseable".
func (c Codec) EpochMillis(s, layout string) (int64, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), c.Location())
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrFormat, "date", err)
	}
	return t.UnixMilli(), nil
}

// Format renders ms as YYYY-MM-DD HH:MM:SS. Values outside years 1..9999
// return InvalidDate and an apperr.ErrFormat error.
func (c Codec) Format(ms int64) (string, error) {
	t := time.UnixMilli(ms).In(c.Location())
	if y := t.Year(); y < 1 || y > 9999 {
		return InvalidDate, apperr.New(apperr.ErrFormat, "epoch", fmt.Sprintf("epoch %d out of range", ms))
	}
	return t.Format(DateTimeLayout), nil
}

// FormatRaw is Format for values that arrive as text.
func (c Codec) FormatRaw(raw string) (string, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return InvalidDate, apperr.Wrap(apperr.ErrFormat, "epoch", err)
	}
	return c.Format(ms)
}

// DatePart renders only the YYYY-MM-DD part of ms.
func (c Codec) DatePart(ms int64) string {
	s, err := c.Format(ms)
	if err != nil {
		return s
	}
	return s[:len(DateLayout)]
}

// DisplayEnd renders an entitlement end, special-casing PermanentEpoch.
func (c Codec) DisplayEnd(ms int64) string {
	if ms == PermanentEpoch {
		return Permanent
	}
	return c.DatePart(ms)
}

// Today returns the current date as YYYY-MM-DD.
func (c Codec) Today(now time.Time) string {
	return now.In(c.Location()).Format(DateLayout)
}
