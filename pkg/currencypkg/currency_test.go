package currencypkg

import "testing"

func TestIsSupportedCurrency(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		currency string
		want     bool
	}{
		{currency: "USD", want: true},
		{currency: "eur", want: true},
		{currency: " Gbp ", want: true},
		{currency: "JPY", want: true},
		{currency: "RMB", want: false},
		{currency: "US", want: false},
		{currency: "DOLLAR", want: false},
		{currency: "", want: false},
	}

	for _, tc := range testCases {
		if got := IsSupportedCurrency(tc.currency); got != tc.want {
			t.Errorf("IsSupportedCurrency(%q) = %v, want %v", tc.currency, got, tc.want)
		}
	}
}
