package ensemble

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var aedPrinter = message.NewPrinter(language.English)

// FormatAED renders a price with thousands separators and two decimals,
// e.g. "1,234,567.89 AED".
func FormatAED(v float64) string {
	return aedPrinter.Sprintf("%.2f AED", v)
}
