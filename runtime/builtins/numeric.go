package builtins

import (
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aledsdavies/teng/core/value"
)

// biRound implements round(n[, digits]).
func biRound(args []value.Value, ctx *Context) value.Value {
	n := arg(args, 0)
	num, ok := n.ToNumber()
	if !ok {
		return value.Undefined
	}
	digits := int(argInt(args, 1, 0))
	f := num.AsReal()
	if num.Kind() == value.KindInteger {
		f = float64(num.AsInt())
	}
	mul := math.Pow(10, float64(digits))
	r := math.Round(f*mul) / mul
	if digits == 0 {
		return value.Int(int64(r))
	}
	return value.Real(r)
}

// biNumFormat implements numformat(n, decimalPoint, thousandSep): a
// decimal-point and thousand-separator aware number formatter.
func biNumFormat(args []value.Value, ctx *Context) value.Value {
	num, ok := arg(args, 0).ToNumber()
	if !ok {
		return value.Undefined
	}
	decimalPoint := "."
	if v := arg(args, 1); !v.IsUndefined() {
		decimalPoint = v.ToString()
	}
	thousandSep := ","
	if v := arg(args, 2); !v.IsUndefined() {
		thousandSep = v.ToString()
	}

	var intPart, fracPart string
	if num.Kind() == value.KindInteger {
		intPart = strconv.FormatInt(num.AsInt(), 10)
	} else {
		s := strconv.FormatFloat(num.AsReal(), 'f', -1, 64)
		parts := strings.SplitN(s, ".", 2)
		intPart = parts[0]
		if len(parts) == 2 {
			fracPart = parts[1]
		}
	}

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	grouped := groupThousands(intPart, thousandSep)
	out := grouped
	if fracPart != "" {
		out += decimalPoint + fracPart
	}
	if neg {
		out = "-" + out
	}
	return value.Str(out)
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return strings.Join(parts, sep)
}

// biInt implements int(x): truncating conversion to integer.
func biInt(args []value.Value, ctx *Context) value.Value {
	num, ok := arg(args, 0).ToNumber()
	if !ok {
		return value.Int(0)
	}
	if num.Kind() == value.KindInteger {
		return num
	}
	return value.Int(int64(num.AsReal()))
}

// biRandom implements random([max]): impure, never foldable.
func biRandom(args []value.Value, ctx *Context) value.Value {
	max := argInt(args, 0, math.MaxInt32)
	if max <= 0 {
		return value.Int(0)
	}
	return value.Int(rand.Int63n(max))
}

// biNow implements now(): current Unix time, impure.
func biNow(args []value.Value, ctx *Context) value.Value {
	return value.Int(time.Now().Unix())
}

// monthNames/dayNames are the default English names used when date()'s
// auxiliary month/day-name argument is absent.
var monthNames = []string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}
var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// biDate implements date(format, unixSeconds[, namesCSV]): a strftime-like
// formatter. namesCSV, when given, is "Jan,Feb,...,Dec,Sun,Mon,...,Sat" (12
// month names followed by 7 day names) overriding the English defaults.
func biDate(args []value.Value, ctx *Context) value.Value {
	format := arg(args, 0).ToString()
	sec := argInt(args, 1, 0)
	months, days := monthNames, dayNames
	if v := arg(args, 2); !v.IsUndefined() {
		names := strings.Split(v.ToString(), ",")
		if len(names) == 19 {
			months, days = names[:12], names[12:]
		}
	}
	t := time.Unix(sec, 0).UTC()

	var buf strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			buf.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			fmt.Fprintf(&buf, "%04d", t.Year())
		case 'm':
			fmt.Fprintf(&buf, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&buf, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&buf, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&buf, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&buf, "%02d", t.Second())
		case 'B':
			buf.WriteString(months[int(t.Month())-1])
		case 'A':
			buf.WriteString(days[int(t.Weekday())])
		case '%':
			buf.WriteByte('%')
		default:
			buf.WriteByte('%')
			buf.WriteByte(format[i])
		}
	}
	return value.Str(buf.String())
}

// biSecToTime implements sectotime(seconds): "HH:MM:SS" rendering of a
// duration in seconds.
func biSecToTime(args []value.Value, ctx *Context) value.Value {
	sec := argInt(args, 0, 0)
	neg := sec < 0
	if neg {
		sec = -sec
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	out := fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	if neg {
		out = "-" + out
	}
	return value.Str(out)
}

// biURLEscape implements urlescape(s): percent-encoding for use in a URL
// query component.
func biURLEscape(args []value.Value, ctx *Context) value.Value {
	return value.Str(url.QueryEscape(arg(args, 0).ToString()))
}
