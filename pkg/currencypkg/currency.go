// Package currencypkg provides common currency related functionality for apps.
package currencypkg

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Constants for commonly used currencies.
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
)

// iso4217 holds the active ISO 4217 alphabetic codes.
var iso4217 = map[string]struct{}{}

func init() {
	codes := `AED AFN ALL AMD ANG AOA ARS AUD AWG AZN BAM BBD BDT BGN BHD BIF BMD BND BOB BRL
BSD BTN BWP BYN BZD CAD CDF CHF CLP CNY COP CRC CUP CVE CZK DJF DKK DOP DZD EGP ERN ETB EUR
FJD FKP GBP GEL GHS GIP GMD GNF GTQ GYD HKD HNL HTG HUF IDR ILS INR IQD IRR ISK JMD JOD JPY
KES KGS KHR KMF KPW KRW KWD KYD KZT LAK LBP LKR LRD LSL LYD MAD MDL MGA MKD MMK MNT MOP MRU
MUR MVR MWK MXN MYR MZN NAD NGN NIO NOK NPR NZD OMR PAB PEN PGK PHP PKR PLN PYG QAR RON RSD
RUB RWF SAR SBD SCR SDG SEK SGD SHP SLE SOS SRD SSP STN SVC SYP SZL THB TJS TMT TND TOP TRY
TTD TWD TZS UAH UGX USD UYU UZS VES VND VUV WST XAF XCD XOF XPF YER ZAR ZMW ZWL`

	for _, c := range strings.Fields(codes) {
		iso4217[c] = struct{}{}
	}
}

// IsSupportedCurrency returns true if the currency is an active ISO 4217 code.
// The comparison ignores case and surrounding spaces.
func IsSupportedCurrency(currency string) bool {
	_, ok := iso4217[strings.ToUpper(strings.TrimSpace(currency))]
	return ok
}

// ValidCurrency validates whether the currency is supported.
var ValidCurrency validator.Func = func(fl validator.FieldLevel) bool {
	if currency, ok := fl.Field().Interface().(string); ok {
		return IsSupportedCurrency(currency)
	}

	return false
}
