// Package symbols normalizes ticker references into canonical identities.
package symbols

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emreakdag/stockdesk/internal/apperror"
)

type Market string

const (
	MarketCN Market = "CN"
	MarketHK Market = "HK"
)

var (
	cnExchangeRe = regexp.MustCompile(`^(\d{6})\.(SH|SZ)$`)
	hkExchangeRe = regexp.MustCompile(`^(\d{1,5})\.HK$`)
	cnPrefixRe   = regexp.MustCompile(`^(SH|SZ)(\d{6})$`)
	hkPrefixRe   = regexp.MustCompile(`^HK(\d{1,5})$`)
	digitsRe     = regexp.MustCompile(`^\d+$`)
)

// Info is a fully resolved ticker.
type Info struct {
	RawSymbol string
	Symbol    string
	Code      string
	Exchange  string
	Market    Market
	Currency  string
}

// Parse normalizes a ticker reference. Accepted forms: 600519.SH, 00700.HK,
// 700.HK, SH600519, SZ000001, HK00700, and bare digits (6 digits resolve to
// an A-share exchange by leading digit; shorter codes need defaultMarket=HK).
func Parse(symbol string, defaultMarket Market) (Info, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return Info{}, apperror.New(apperror.Validation, "symbol cannot be empty")
	}

	if m := cnExchangeRe.FindStringSubmatch(normalized); m != nil {
		return cnInfo(symbol, m[1], m[2]), nil
	}
	if m := hkExchangeRe.FindStringSubmatch(normalized); m != nil {
		return hkInfo(symbol, m[1]), nil
	}
	if m := cnPrefixRe.FindStringSubmatch(normalized); m != nil {
		return cnInfo(symbol, m[2], m[1]), nil
	}
	if m := hkPrefixRe.FindStringSubmatch(normalized); m != nil {
		return hkInfo(symbol, m[1]), nil
	}

	if digitsRe.MatchString(normalized) {
		if len(normalized) == 6 && defaultMarket != MarketHK {
			return cnInfo(symbol, normalized, InferCNExchange(normalized)), nil
		}
		if len(normalized) <= 5 {
			return hkInfo(symbol, normalized), nil
		}
	}

	return Info{}, apperror.New(apperror.Resolution,
		fmt.Sprintf("unrecognized symbol format: %s", symbol))
}

// InferCNExchange maps a 6-digit A-share code to its exchange: codes starting
// with 5, 6, or 9 trade in Shanghai, the rest in Shenzhen.
func InferCNExchange(code string) string {
	switch code[0] {
	case '5', '6', '9':
		return "SH"
	default:
		return "SZ"
	}
}

func cnInfo(raw, code, exchange string) Info {
	return Info{
		RawSymbol: raw,
		Symbol:    code + "." + exchange,
		Code:      code,
		Exchange:  exchange,
		Market:    MarketCN,
		Currency:  "CNY",
	}
}

func hkInfo(raw, code string) Info {
	padded := code
	if len(padded) < 5 {
		padded = strings.Repeat("0", 5-len(padded)) + padded
	}
	return Info{
		RawSymbol: raw,
		Symbol:    padded + ".HK",
		Code:      padded,
		Exchange:  "HK",
		Market:    MarketHK,
		Currency:  "HKD",
	}
}
