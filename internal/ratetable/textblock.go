package ratetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/apperr"
	"github.com/jmehdipour/rate-table-editor/internal/dateconv"
	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/shopspring/decimal"
)

const (
	LabelSeriesName    = "Series Name:"
	LabelSeriesVersion = "Series Version:"
	LabelStartDate     = "Start Date:"
	LabelCreatedDate   = "Created Date:"

	headerPrefix = "Item Name"
	valueSep     = "\t\t"
)

var (
	Header    = "Item Name\t\t\tVersion\t\tRate"
	Separator = strings.Repeat("-", 65)
)

// field is one labelled line of the block. A zero field is a blank line.
type field struct {
	label  string
	encode func(s model.RateTableSeries, dates dateconv.Codec) string
	decode func(d *Draft, value string, dates dateconv.Codec)
}

// grammar is the fixed order of the block head; items follow Header and Separator.
var grammar = []field{
	{
		label:  LabelSeriesName,
		encode: func(s model.RateTableSeries, _ dateconv.Codec) string { return s.Series },
		decode: func(d *Draft, v string, _ dateconv.Codec) {
			d.Series.Series = v
			d.hasName = v != ""
		},
	},
	{
		label:  LabelSeriesVersion,
		encode: func(s model.RateTableSeries, _ dateconv.Codec) string { return s.Version },
		decode: func(d *Draft, v string, _ dateconv.Codec) {
			d.Series.Version = v
			d.hasVersion = v != ""
		},
	},
	{},
	{
		label:  LabelStartDate,
		encode: func(s model.RateTableSeries, dates dateconv.Codec) string { return blockDate(s.EffectiveFrom, dates) },
		decode: func(d *Draft, v string, dates dateconv.Codec) {
			d.Series.EffectiveFrom = d.parseDate(LabelStartDate, v, dates)
		},
	},
	{
		label:  LabelCreatedDate,
		encode: func(s model.RateTableSeries, dates dateconv.Codec) string { return blockDate(s.Created, dates) },
		decode: func(d *Draft, v string, dates dateconv.Codec) {
			d.Series.Created = d.parseDate(LabelCreatedDate, v, dates)
		},
	},
	{},
}

// TextCodec converts a series to the tab-formatted block and back.
type TextCodec struct {
	dates dateconv.Codec
}

func NewTextCodec(dates dateconv.Codec) TextCodec {
	return TextCodec{dates: dates}
}

// Encode renders s. Dates are shown as YYYY-MM-DD in the codec's location.
func (c TextCodec) Encode(s model.RateTableSeries) string {
	var b strings.Builder
	for _, f := range grammar {
		if f.label != "" {
			b.WriteString(f.label)
			b.WriteString(valueSep)
			b.WriteString(f.encode(s, c.dates))
		}
		b.WriteByte('\n')
	}

	b.WriteString(Header)
	b.WriteByte('\n')
	b.WriteString(Separator)
	b.WriteByte('\n')

	for _, it := range s.Items {
		fmt.Fprintf(&b, "%s\t\t\t%s\t\t%s\n", it.Name, it.Version, it.Rate.String())
	}

	return b.String()
}

// Decode parses a block. It never fails: missing labels leave the draft
// incomplete and unparseable item lines are dropped. Use Draft.Complete
// before submitting.
func (c TextCodec) Decode(text string) Draft {
	d := Draft{Series: model.RateTableSeries{Items: []model.RateTableItem{}}}
	inItems := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if !inItems {
			if strings.HasPrefix(line, headerPrefix) {
				inItems = true
				continue
			}
			for _, f := range grammar {
				if f.label != "" && strings.HasPrefix(line, f.label) {
					v := strings.TrimSpace(line[len(f.label):])
					if strings.ContainsRune(v, '\t') {
						// label values are a single field
						d.invalid = append(d.invalid, apperr.New(apperr.ErrFormat, f.label,
							fmt.Sprintf("%q must not contain tabs", v)))
						v = strings.Join(strings.Fields(v), " ")
					}
					f.decode(&d, v, c.dates)
					break
				}
			}
			continue
		}

		if isSeparator(line) || !strings.Contains(line, "\t") {
			continue
		}

		item, ok := parseItem(line)
		if !ok {
			d.Dropped = append(d.Dropped, line)
			continue
		}
		d.Series.Items = append(d.Series.Items, item)
	}

	return d
}

// Draft is the result of decoding a block.
type Draft struct {
	Series  model.RateTableSeries
	Dropped []string // item lines that were not name/version/rate triples

	hasName    bool
	hasVersion bool
	invalid    []error
}

// Missing lists the required labels that were absent or empty.
func (d Draft) Missing() []string {
	var out []string
	if !d.hasName {
		out = append(out, LabelSeriesName)
	}
	if !d.hasVersion {
		out = append(out, LabelSeriesVersion)
	}
	return out
}

// Complete returns the series when the draft can be submitted.
func (d Draft) Complete() (model.RateTableSeries, error) {
	if missing := d.Missing(); len(missing) > 0 {
		return model.RateTableSeries{}, apperr.New(apperr.ErrDecodeIncomplete,
			strings.Join(missing, ", "), "missing "+strings.Join(missing, " and "))
	}
	if len(d.invalid) > 0 {
		return model.RateTableSeries{}, d.invalid[0]
	}
	return d.Series, nil
}

func (d *Draft) parseDate(label, v string, dates dateconv.Codec) *int64 {
	if v == "" {
		return nil
	}
	ms, err := dates.EpochMillis(v, dateconv.DateLayout)
	if err != nil {
		if ms, err = dates.EpochMillis(v, dateconv.DateTimeLayout); err != nil {
			d.invalid = append(d.invalid, apperr.New(apperr.ErrFormat, label, fmt.Sprintf("%q is not a YYYY-MM-DD date", v)))
			return nil
		}
	}
	return &ms
}

func blockDate(ms *int64, dates dateconv.Codec) string {
	if ms == nil || *ms == 0 {
		return ""
	}
	return dates.DatePart(*ms)
}

// isSeparator reports a line made only of dashes.
func isSeparator(line string) bool {
	t := strings.TrimSpace(line)
	return t != "" && strings.Trim(t, "-") == ""
}

func parseItem(line string) (model.RateTableItem, bool) {
	parts := strings.FieldsFunc(line, func(r rune) bool { return r == '\t' })
	if len(parts) < 3 {
		return model.RateTableItem{}, false
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return model.RateTableItem{}, false
	}

	return model.RateTableItem{
		Name:    strings.TrimSpace(parts[0]),
		Version: strings.TrimSpace(parts[1]),
		Rate:    rate,
	}, true
}

// IncrementVersion bumps the trailing number of the Series Version line.
// A value that is not a non-negative integer is reset to 1. The second
// result reports whether the line was found.
func IncrementVersion(block string) (string, bool) {
	return rewriteValue(block, LabelSeriesVersion, func(old string) string {
		tok := old
		if i := strings.LastIndexAny(old, "\t "); i >= 0 {
			tok = old[i+1:]
		}
		n, err := strconv.ParseUint(tok, 10, 63)
		if err != nil {
			return "1"
		}
		return strconv.FormatUint(n+1, 10)
	})
}

// RestampStartDate replaces the Start Date value with date.
func RestampStartDate(block string, date time.Time) (string, bool) {
	return rewriteValue(block, LabelStartDate, func(string) string {
		return date.Format(dateconv.DateLayout)
	})
}

// EditorCopy prepares a rendered block for editing. The Created Date line
// and the separator are dropped.
func EditorCopy(block string) string {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), LabelCreatedDate) || isSeparator(l) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

// rewriteValue replaces the value portion of every line carrying label,
// keeping indentation, the separator run and any trailing CR.
func rewriteValue(block, label string, next func(old string) string) (string, bool) {
	lines := strings.Split(block, "\n")
	found := false

	for i, line := range lines {
		body := line
		cr := ""
		if strings.HasSuffix(body, "\r") {
			body, cr = body[:len(body)-1], "\r"
		}

		rest := strings.TrimLeft(body, " \t")
		if !strings.HasPrefix(rest, label) {
			continue
		}
		indent := body[:len(body)-len(rest)]
		after := rest[len(label):]
		value := strings.TrimLeft(after, " \t")
		sep := after[:len(after)-len(value)]
		if sep == "" {
			sep = valueSep
		}

		lines[i] = indent + label + sep + next(strings.TrimSpace(value)) + cr
		found = true
	}

	return strings.Join(lines, "\n"), found
}
