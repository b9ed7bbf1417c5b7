package format

// Luhn returns the check digit to append to payload, a string of decimal digits.
func Luhn(payload string) byte {
	sum := 0
	// The rightmost payload digit sits next to the check digit and is doubled.
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if (len(payload)-1-i)%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

// LuhnValid reports whether digits ends in a correct Luhn check digit.
func LuhnValid(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return Luhn(digits[:len(digits)-1]) == digits[len(digits)-1]
}
