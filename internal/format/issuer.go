package format

import (
	"strconv"
	"strings"
)

type issuerRange struct {
	lo, hi   int
	category string
}

// First match wins; 20 is Diners before the generic 20-29 airline block.
var issuerRanges = []issuerRange{
	{0, 0, "ISO/TC 68 and other industry assignments"},
	{10, 10, "ANA mileage cards"},
	{11, 12, "Airlines"},
	{13, 13, "Odeon Premiere Club"},
	{14, 14, "Lounge Club Airport"},
	{15, 16, "Airlines"},
	{17, 17, "PAG Airways UATP card"},
	{18, 19, "Airlines"},
	{20, 20, "Diners Club International"},
	{20, 29, "Airlines and other future industry assignments"},
	{30, 30, "Diners Club and others"},
	{31, 31, "Banking/Financial"},
	{32, 34, "Travel and entertainment"},
	{35, 35, "JCB"},
	{36, 36, "Diners Club International"},
	{37, 37, "American Express"},
	{38, 39, "Banking/Financial"},
	{40, 49, "Visa"},
	{50, 50, "Banking/Financial"},
	{51, 55, "Mastercard"},
	{56, 56, "Maestro"},
	{57, 59, "Banking/Financial"},
	{60, 61, "Merchandising and Banking"},
	{62, 62, "China UnionPay"},
	{63, 64, "Merchandising and Banking"},
	{65, 65, "Discover"},
	{66, 66, "Merchandising and Banking"},
	{67, 67, "Maestro"},
	{69, 69, "Merchandising and Banking"},
	{70, 79, "Petroleum and Future Industry"},
	{80, 88, "Healthcare and Telecommunications"},
	{89, 89, "Telecommunications"},
	{90, 99, "National Assignment"},
}

// IssuerCategory names the issuer category of a card-shaped identifier from
// its first two digits. It returns "Unknown Category" when nothing matches.
func IssuerCategory(identifier string) string {
	digits := strings.ReplaceAll(identifier, string(Separator), "")
	if len(digits) < 2 {
		return "Unknown Category"
	}
	block, err := strconv.Atoi(digits[:2])
	if err != nil {
		return "Unknown Category"
	}
	for _, r := range issuerRanges {
		if block >= r.lo && block <= r.hi {
			return r.category
		}
	}
	return "Unknown Category"
}
