package utils

import (
	"math"
	"strconv"
)

// PaiseToRupees rounds minor units to whole rupees. Display only; amounts sent
// to the payment backend always stay in paise.
func PaiseToRupees(paise int64) int64 {
	return int64(math.Round(float64(paise) / 100))
}

// FormatRupees renders paise as a whole-rupee label such as "₹350".
func FormatRupees(paise int64) string {
	return "₹" + strconv.FormatInt(PaiseToRupees(paise), 10)
}

// DiscountPercent is how much cheaper price is than original, in whole
// percent. It is zero when there is no valid original price.
func DiscountPercent(price, original int64) int {
	if original <= 0 || price >= original {
		return 0
	}
	return int(math.Round(float64(original-price) * 100 / float64(original)))
}
