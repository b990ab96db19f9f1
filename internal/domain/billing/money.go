package billing

import "fmt"

// FormatPence renders pence as pounds for mails and messages,
// e.g. 6600 -> "£66.00", -50 -> "-£0.50".
func FormatPence(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%d.%02d", sign, pence/100, pence%100)
}
