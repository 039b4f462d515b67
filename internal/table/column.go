package table

import (
	"math"
	"strconv"
	"time"
)

// Kind is the semantic type held by a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
	KindBool
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Column is a named, typed vector. Only the slice matching Kind is populated;
// valid[i] == false marks a missing cell.
type Column struct {
	Name string
	Kind Kind

	texts   []string
	numbers []float64
	times   []time.Time
	bools   []bool
	valid   []bool
}

// NewText creates a text column. A nil valid slice means every cell is present.
func NewText(name string, values []string, valid []bool) *Column {
	return &Column{Name: name, Kind: KindText, texts: values, valid: validity(len(values), valid)}
}

// NewNumber creates a numeric column. NaN cells are missing.
func NewNumber(name string, values []float64) *Column {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !math.IsNaN(v)
	}
	return &Column{Name: name, Kind: KindNumber, numbers: values, valid: valid}
}

// NewTime creates a temporal column. Zero times are missing.
func NewTime(name string, values []time.Time) *Column {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = !v.IsZero()
	}
	return &Column{Name: name, Kind: KindTime, times: values, valid: valid}
}

// NewBool creates a boolean column. A nil valid slice means every cell is present.
func NewBool(name string, values []bool, valid []bool) *Column {
	return &Column{Name: name, Kind: KindBool, bools: values, valid: validity(len(values), valid)}
}

func validity(n int, valid []bool) []bool {
	if valid != nil {
		return valid
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

// Len returns the number of cells
func (c *Column) Len() int {
	return len(c.valid)
}

// IsMissing reports whether cell i is missing
func (c *Column) IsMissing(i int) bool {
	return !c.valid[i]
}

// MissingCount returns the number of missing cells
func (c *Column) MissingCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Text returns cell i of a text column
func (c *Column) Text(i int) string { return c.texts[i] }

// Number returns cell i of a numeric column, NaN when missing
func (c *Column) Number(i int) float64 {
	if !c.valid[i] {
		return math.NaN()
	}
	return c.numbers[i]
}

// Time returns cell i of a temporal column
func (c *Column) Time(i int) time.Time { return c.times[i] }

// Bool returns cell i of a boolean column
func (c *Column) Bool(i int) bool { return c.bools[i] }

// SetText stores a present text value
func (c *Column) SetText(i int, v string) {
	c.texts[i] = v
	c.valid[i] = true
}

// SetNumber stores a numeric value; NaN marks the cell missing
func (c *Column) SetNumber(i int, v float64) {
	c.numbers[i] = v
	c.valid[i] = !math.IsNaN(v)
}

// SetMissing marks cell i missing
func (c *Column) SetMissing(i int) {
	c.valid[i] = false
}

// Numbers returns the present values of a numeric column
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.numbers))
	for i, v := range c.numbers {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// String renders cell i the way it is written to delimited output.
// Missing cells render as the empty string.
func (c *Column) String(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(c.numbers[i], 'f', -1, 64)
	case KindTime:
		return FormatTime(c.times[i])
	case KindBool:
		return strconv.FormatBool(c.bools[i])
	default:
		return c.texts[i]
	}
}

// FormatTime renders dates without a clock part as YYYY-MM-DD.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Clone returns a deep copy
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	out.valid = append([]bool(nil), c.valid...)
	switch c.Kind {
	case KindNumber:
		out.numbers = append([]float64(nil), c.numbers...)
	case KindTime:
		out.times = append([]time.Time(nil), c.times...)
	case KindBool:
		out.bools = append([]bool(nil), c.bools...)
	default:
		out.texts = append([]string(nil), c.texts...)
	}
	return out
}

// Take returns a new column holding the given rows in order
func (c *Column) Take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, valid: make([]bool, len(rows))}
	switch c.Kind {
	case KindNumber:
		out.numbers = make([]float64, len(rows))
	case KindTime:
		out.times = make([]time.Time, len(rows))
	case KindBool:
		out.bools = make([]bool, len(rows))
	default:
		out.texts = make([]string, len(rows))
	}
	for j, i := range rows {
		out.valid[j] = c.valid[i]
		switch c.Kind {
		case KindNumber:
			out.numbers[j] = c.numbers[i]
		case KindTime:
			out.times[j] = c.times[i]
		case KindBool:
			out.bools[j] = c.bools[i]
		default:
			out.texts[j] = c.texts[i]
		}
	}
	return out
}

// key renders cell i for row identity. Missing cells compare equal to each
// other and never equal a present value.
func (c *Column) key(i int) string {
	if !c.valid[i] {
		return "\x00"
	}
	switch c.Kind {
	case KindNumber:
		return "n" + strconv.FormatFloat(c.numbers[i], 'g', -1, 64)
	case KindTime:
		return "t" + c.times[i].UTC().Format(time.RFC3339Nano)
	case KindBool:
		return "b" + strconv.FormatBool(c.bools[i])
	default:
		return "s" + strconv.Quote(c.texts[i])
	}
}
