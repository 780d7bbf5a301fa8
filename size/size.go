/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package size is a byte-count type with human-readable parsing and
// formatting (1KB, 32MB, ...), used wherever a config document wants a
// buffer or file-size limit without forcing the operator to spell out raw
// byte counts.
package size

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// Size is a byte count backed by an unsigned 64 bit integer.
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1
	SizeKilo      = SizeUnit * 1024
	SizeMega      = SizeKilo * 1024
	SizeGiga      = SizeMega * 1024
	SizeTera      = SizeGiga * 1024
	SizePeta      = SizeTera * 1024
	SizeExa       = SizePeta * 1024
)

const (
	FormatRound0 = "%.0f"
	FormatRound1 = "%.1f"
	FormatRound2 = "%.2f"
	FormatRound3 = "%.3f"
)

var errOverflow = errors.New("size: value out of range")

var defaultUnit int32 = 'B'

// SetDefaultUnit overrides the trailing unit letter used by String/Unit/Code
// (default 'B'). Passing 0 resets it to 'B'.
func SetDefaultUnit(r rune) {
	if r == 0 {
		r = 'B'
	}
	atomic.StoreInt32(&defaultUnit, int32(r))
}

func currentUnit() string {
	return string(rune(atomic.LoadInt32(&defaultUnit)))
}

type tier struct {
	threshold Size
	prefix    string
}

var tiers = []tier{
	{SizeExa, "E"},
	{SizePeta, "P"},
	{SizeTera, "T"},
	{SizeGiga, "G"},
	{SizeMega, "M"},
	{SizeKilo, "K"},
	{0, ""},
}

func (s Size) tier() (string, float64) {
	for _, t := range tiers {
		if s >= t.threshold {
			if t.threshold == 0 {
				return "", 1
			}
			return t.prefix, float64(t.threshold)
		}
	}
	return "", 1
}

// Unit returns the auto-scaled unit code for this size, e.g. "KB", "MB".
// The argument is unused; it exists for call-site symmetry with Format.
func (s Size) Unit(_ int) string {
	prefix, _ := s.tier()
	return prefix + currentUnit()
}

// Code is equivalent to Unit; it names the same auto-scaled unit code.
func (s Size) Code(_ int) string {
	return s.Unit(0)
}

// String formats the size scaled to its nearest unit with two decimals,
// e.g. "1.50KB".
func (s Size) String() string {
	prefix, div := s.tier()
	v := float64(s) / div
	return fmt.Sprintf("%.2f%s%s", v, prefix, currentUnit())
}

// Format renders the raw byte count (unscaled) using a fmt float verb such
// as FormatRound2.
func (s Size) Format(format string) string {
	return fmt.Sprintf(format, float64(s))
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case Size:
		return float64(n)
	default:
		return 0
	}
}

func clamp(f float64) (Size, error) {
	if f <= 0 {
		return 0, nil
	}
	if f > float64(math.MaxUint64) {
		return Size(math.MaxUint64), errOverflow
	}
	return Size(f), nil
}

// Add adds v (any numeric type or Size) to s in place, ignoring overflow.
func (s *Size) Add(v interface{}) {
	_ = s.AddErr(v)
}

// AddErr adds v to s in place, returning errOverflow if the result was
// clamped to math.MaxUint64.
func (s *Size) AddErr(v interface{}) error {
	r, err := clamp(float64(*s) + toFloat64(v))
	*s = r
	return err
}

// Sub subtracts v from s in place, clamping at zero.
func (s *Size) Sub(v interface{}) {
	_ = s.SubErr(v)
}

// SubErr subtracts v from s in place, returning an error if the result
// would have gone negative (clamped to zero instead).
func (s *Size) SubErr(v interface{}) error {
	f := float64(*s) - toFloat64(v)
	if f < 0 {
		*s = 0
		return errOverflow
	}
	*s = Size(f)
	return nil
}

// Mul multiplies s by v in place (rounded to the nearest byte), ignoring
// overflow.
func (s *Size) Mul(v interface{}) {
	_ = s.MulErr(v)
}

// MulErr multiplies s by v in place, returning errOverflow if the result
// was clamped to math.MaxUint64.
func (s *Size) MulErr(v interface{}) error {
	r, err := clamp(math.Round(float64(*s) * toFloat64(v)))
	*s = r
	return err
}

// Div divides s by v in place (rounded to the nearest byte), ignoring
// division-by-zero and overflow errors.
func (s *Size) Div(v interface{}) {
	_ = s.DivErr(v)
}

// DivErr divides s by v in place. Dividing by zero or a negative value
// leaves s at zero and returns an error.
func (s *Size) DivErr(v interface{}) error {
	d := toFloat64(v)
	if d <= 0 {
		*s = 0
		return errOverflow
	}
	r, err := clamp(math.Round(float64(*s) / d))
	*s = r
	return err
}

// Floor truncates s down to the nearest multiple of unit.
func (s *Size) Floor(unit Size) {
	if unit <= 0 {
		return
	}
	*s = (*s / unit) * unit
}

func (s Size) Int() int       { return int(s) }
func (s Size) Int32() int32   { return int32(s) }
func (s Size) Int64() int64   { return int64(s) }
func (s Size) Uint() uint     { return uint(s) }
func (s Size) Uint32() uint32 { return uint32(s) }
func (s Size) Uint64() uint64 { return uint64(s) }

func (s Size) Float32() float32 { return float32(s) }
func (s Size) Float64() float64 { return float64(s) }

func (s Size) KiloBytes() uint64 { return uint64(s) / uint64(SizeKilo) }
func (s Size) MegaBytes() uint64 { return uint64(s) / uint64(SizeMega) }
func (s Size) GigaBytes() uint64 { return uint64(s) / uint64(SizeGiga) }
func (s Size) TeraBytes() uint64 { return uint64(s) / uint64(SizeTera) }
func (s Size) PetaBytes() uint64 { return uint64(s) / uint64(SizePeta) }
func (s Size) ExaBytes() uint64  { return uint64(s) / uint64(SizeExa) }

var unitMultiplier = map[string]float64{
	"B":  1,
	"K":  float64(SizeKilo),
	"KB": float64(SizeKilo),
	"M":  float64(SizeMega),
	"MB": float64(SizeMega),
	"G":  float64(SizeGiga),
	"GB": float64(SizeGiga),
	"T":  float64(SizeTera),
	"TB": float64(SizeTera),
	"P":  float64(SizePeta),
	"PB": float64(SizePeta),
	"E":  float64(SizeExa),
	"EB": float64(SizeExa),
}

// Parse parses a human-readable size such as "512", "1.5KB", "2GiB" (the
// trailing 'i' in binary-style suffixes is ignored, all units here are
// already base-1024) into a Size.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("size: empty value")
	}

	i := 0
	for i < len(s) && (s[i] == '.' || s[i] == '-' || s[i] == '+' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("size: no numeric value in %q", s)
	}

	num, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("size: invalid numeric value in %q: %w", s, err)
	}

	unit := strings.TrimSpace(s[i:])
	unit = strings.TrimSuffix(strings.TrimSuffix(unit, "i"), "I")
	unit = strings.ToUpper(unit)

	mult := 1.0
	if unit != "" {
		m, ok := unitMultiplier[unit]
		if !ok {
			return 0, fmt.Errorf("size: unknown unit %q", unit)
		}
		mult = m
	}

	r, _ := clamp(num * mult)
	return r, nil
}

// ParseInt64 converts a signed byte count into a Size, clamping negative
// values to zero.
// ParseByte is equivalent to Parse but takes a byte slice, avoiding a
// string allocation when the input already arrives as bytes.
func ParseByte(b []byte) (Size, error) {
	return Parse(string(b))
}

// ParseSize is a deprecated alias for Parse.
func ParseSize(s string) (Size, error) {
	return Parse(s)
}

// ParseByteAsSize is a deprecated alias for ParseByte.
func ParseByteAsSize(b []byte) (Size, error) {
	return ParseByte(b)
}

func ParseInt64(v int64) Size {
	if v < 0 {
		return 0
	}
	return Size(v)
}

// SizeFromInt64 is an alias for ParseInt64.
func SizeFromInt64(v int64) Size {
	return ParseInt64(v)
}

// ParseUint64 converts an unsigned byte count into a Size.
func ParseUint64(v uint64) Size {
	return Size(v)
}

// ParseFloat64 converts a byte count into a Size, clamping negative values
// to zero and values beyond math.MaxUint64 to math.MaxUint64.
func ParseFloat64(v float64) Size {
	r, _ := clamp(v)
	return r
}

// SizeFromFloat64 is an alias for ParseFloat64.
func SizeFromFloat64(v float64) Size {
	return ParseFloat64(v)
}

// MarshalText implements encoding.TextMarshaler.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(b []byte) error {
	r, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = r
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Size) MarshalBinary() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(s), 10)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Size) UnmarshalBinary(b []byte) error {
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return err
	}
	*s = Size(v)
	return nil
}

// MarshalCBOR implements cbor.Marshaler, encoding the size as its raw byte
// count.
func (s Size) MarshalCBOR() ([]byte, error) {
	return cborMarshalUint64(uint64(s))
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (s *Size) UnmarshalCBOR(data []byte) error {
	v, err := cborUnmarshalUint64(data)
	if err != nil {
		return err
	}
	*s = Size(v)
	return nil
}

// MarshalTOML implements toml.Marshaler, encoding the size in its
// human-readable form.
func (s Size) MarshalTOML() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Size) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		r, err := Parse(v)
		if err != nil {
			return err
		}
		*s = r
		return nil
	case int64:
		*s = Size(v)
		return nil
	case float64:
		*s = Size(v)
		return nil
	default:
		return fmt.Errorf("size: cannot unmarshal TOML value of type %T", data)
	}
}
