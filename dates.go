package morph

import (
	"errors"
	"math"
	"strings"
	"time"
)

// isoLayout matches the format produced by IsoString: microsecond precision
// and a numeric offset.
const isoLayout = "2006-01-02T15:04:05.999999-07:00"

// dateLayouts are tried in order by ParseDate. Layouts without a zone are
// interpreted in the node's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var errDateFormat = errors.New("unrecognized date format")

// DateNode parses strings and unix timestamps into time.Time.
type DateNode struct {
	inner Transform
	loc   *time.Location
}

// ParseDate returns a transform parsing the result of inner into a
// time.Time. Strings are matched against common layouts; numbers are unix
// seconds. Values without a zone are placed in UTC unless In is used.
func ParseDate(inner any) *DateNode {
	return &DateNode{inner: asTransform(inner), loc: time.UTC}
}

// In returns a copy of d that places zone-less values in loc.
func (d *DateNode) In(loc *time.Location) *DateNode {
	c := *d
	if loc == nil {
		loc = time.UTC
	}
	c.loc = loc
	return &c
}

func (d *DateNode) check() error {
	return checkAll(d.inner)
}

// Eval implements Transform.
func (d *DateNode) Eval(scope *Scope, source any) (any, error) {
	v, err := d.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case string:
		return parseDate(t, d.loc)
	}
	if isNumber(v) {
		f, _ := ToFloat(v)
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).In(d.loc), nil
	}
	return nil, newCoercionError("datetime", v, nil)
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newCoercionError("datetime", s, errDateFormat)
}

type isoStringNode struct {
	inner Transform
}

// IsoString returns a transform formatting a time.Time result as ISO 8601
// with microsecond precision and a numeric offset.
func IsoString(inner any) Transform {
	return &isoStringNode{inner: asTransform(inner)}
}

func (n *isoStringNode) check() error {
	return checkAll(n.inner)
}

func (n *isoStringNode) Eval(scope *Scope, source any) (any, error) {
	v, err := n.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(isoLayout), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.Format(isoLayout), nil
	}
	return nil, newCoercionError("datetime", v, nil)
}
