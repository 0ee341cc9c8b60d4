package markup

import (
	"bytes"
	"math"
	"strconv"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"rtdoc/document"
)

// ParseColor understands "#rgb", "#rrggbb" (alpha digits of "#rgba" and
// "#rrggbbaa" are ignored), "rgb(r, g, b)" and "rgba(r, g, b, a)" with
// integer or percentage components.
func ParseColor(value string) (document.RGB, bool) {
	l := css.NewLexer(parse.NewInputString(value))
	tt, data := nextSignificant(l)
	switch tt {
	case css.HashToken:
		if next, _ := nextSignificant(l); next != css.ErrorToken {
			return document.Black, false
		}
		return parseHex(data[1:])
	case css.FunctionToken:
		name := string(bytes.ToLower(data))
		if name != "rgb(" && name != "rgba(" {
			return document.Black, false
		}
		return parseFunction(l)
	}
	return document.Black, false
}

func nextSignificant(l *css.Lexer) (css.TokenType, []byte) {
	for {
		tt, data := l.Next()
		if tt == css.WhitespaceToken || tt == css.CommentToken {
			continue
		}
		return tt, data
	}
}

func parseHex(digits []byte) (document.RGB, bool) {
	var expanded []byte
	switch len(digits) {
	case 3, 4:
		for _, c := range digits[:3] {
			expanded = append(expanded, c, c)
		}
	case 6, 8:
		expanded = digits[:6]
	default:
		return document.Black, false
	}
	v, err := strconv.ParseUint(string(expanded), 16, 32)
	if err != nil {
		return document.Black, false
	}
	return document.RGB(v), true
}

func parseFunction(l *css.Lexer) (document.RGB, bool) {
	var comps []float64
	for {
		tt, data := nextSignificant(l)
		switch tt {
		case css.NumberToken:
			v, err := strconv.ParseFloat(string(data), 64)
			if err != nil {
				return document.Black, false
			}
			comps = append(comps, v)
		case css.PercentageToken:
			v, err := strconv.ParseFloat(string(data[:len(data)-1]), 64)
			if err != nil {
				return document.Black, false
			}
			comps = append(comps, v*255/100)
		case css.CommaToken, css.DelimToken:
			// "rgb(1 2 3 / 50%)" uses slash as alpha separator
		case css.RightParenthesisToken:
			if len(comps) < 3 || len(comps) > 4 {
				return document.Black, false
			}
			return document.NewRGB(channel(comps[0]), channel(comps[1]), channel(comps[2])), true
		default:
			return document.Black, false
		}
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(max(0, min(255, v))))
}
