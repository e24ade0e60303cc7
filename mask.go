package morph

import (
	"fmt"
	"net/netip"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Masker applies content-aware masking to text.
type Masker interface {
	Mask(value string) string
}

// MaskerFunc adapts a function to Masker.
type MaskerFunc func(string) string

// Mask implements Masker.
func (f MaskerFunc) Mask(value string) string { return f(value) }

// maskers holds the built-in rule for every MaskType.
var maskers = map[MaskType]Masker{
	MaskSSN:   MaskerFunc(maskSSN),
	MaskEmail: MaskerFunc(maskEmail),
	MaskPhone: MaskerFunc(maskPhone),
	MaskCard:  MaskerFunc(maskCard),
	MaskIP:    MaskerFunc(maskIP),
	MaskUUID:  MaskerFunc(maskUUID),
	MaskIBAN:  MaskerFunc(maskIBAN),
	MaskName:  MaskerFunc(maskName),
}

// MaskerFor returns the built-in masker for mt.
func MaskerFor(mt MaskType) (Masker, bool) {
	m, ok := maskers[mt]
	return m, ok
}

type maskNode struct {
	kind   MaskType
	masker Masker
	inner  Transform
}

// Mask returns a transform masking the string form of inner's result with
// the built-in rule for mt.
func Mask(mt MaskType, inner any) Transform {
	return &maskNode{kind: mt, masker: maskers[mt], inner: asTransform(inner)}
}

// MaskWith returns a transform masking inner's result with a custom masker.
func MaskWith(m Masker, inner any) Transform {
	return &maskNode{kind: "custom", masker: m, inner: asTransform(inner)}
}

func (n *maskNode) check() error {
	if n.masker == nil {
		return definitionError("unknown mask type %q", n.kind)
	}
	return checkAll(n.inner)
}

func (n *maskNode) Eval(scope *Scope, source any) (any, error) {
	v, err := n.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	s, err := ToString(v)
	if err != nil {
		return nil, err
	}
	return n.masker.Mask(s), nil
}

type redactNode struct {
	text  string
	inner Transform
}

// Redact returns a transform replacing any non-nil result of inner with text.
func Redact(text string, inner any) Transform {
	return &redactNode{text: text, inner: asTransform(inner)}
}

func (n *redactNode) check() error {
	return checkAll(n.inner)
}

func (n *redactNode) Eval(scope *Scope, source any) (any, error) {
	v, err := n.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	return n.text, nil
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stars(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("*", n)
}

// lastDigits returns the final four digits, or false if there are fewer.
func lastDigits(s string) (string, int, bool) {
	d := digitsOf(s)
	if len(d) < 4 {
		return "", len(d), false
	}
	return d[len(d)-4:], len(d), true
}

func maskSSN(s string) string {
	last, _, ok := lastDigits(s)
	if !ok {
		return stars(len(s))
	}
	return "***-**-" + last
}

func maskEmail(s string) string {
	at := strings.LastIndex(s, "@")
	if at < 1 {
		return stars(len(s))
	}
	return s[:1] + "***" + s[at:]
}

func maskPhone(s string) string {
	last, n, ok := lastDigits(s)
	switch {
	case !ok:
		return stars(len(s))
	case n >= 10 && strings.HasPrefix(s, "("):
		return "(***) ***-" + last
	case n >= 10:
		return "***-***-" + last
	default:
		return "***-" + last
	}
}

func maskCard(s string) string {
	last, n, ok := lastDigits(s)
	if !ok {
		return stars(len(s))
	}
	return stars(n-4) + last
}

func maskIP(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return stars(len(s))
	}
	if addr.Is4() {
		b := addr.As4()
		return fmt.Sprintf("%d.%d.xxx.xxx", b[0], b[1])
	}
	groups := strings.Split(addr.StringExpanded(), ":")
	for i := 4; i < len(groups); i++ {
		groups[i] = "xxxx"
	}
	return strings.Join(groups, ":")
}

func maskUUID(s string) string {
	id, err := uuid.Parse(s)
	if err != nil {
		return stars(len(s))
	}
	return id.String()[:8] + "-****-****-****-************"
}

func maskIBAN(s string) string {
	compact := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(compact) < 8 {
		return stars(len(compact))
	}
	return compact[:4] + stars(len(compact)-8) + compact[len(compact)-4:]
}

func maskName(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		if len(runes) == 0 || !unicode.IsLetter(runes[0]) {
			words[i] = stars(len(runes))
			continue
		}
		words[i] = string(runes[0]) + stars(len(runes)-1)
	}
	return strings.Join(words, " ")
}
