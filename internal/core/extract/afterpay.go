package extract

import "regexp"

// Afterpay uses "Upcoming payment: $25.00 due 14 Feb 2025", "Payment 2/4"
// and "We'll automatically deduct it from your card".
var afterpay = strategy{
	dueDate: []*regexp.Regexp{
		dueDateLabel,
		dueOn,
		labelled(`\bupcoming\s+payment\s*:?\s*(?:`+amountPat+`)\s+(?:due\s+)?(?:on\s+)?`, datePat),
		chargedOn,
		paymentDate,
	},
	amount: []*regexp.Regexp{
		labelled(`\bupcoming\s+payment\s*:?\s*`, amountPat),
		paymentOf,
		amountIsDue,
		amountLabel,
	},
	installment: []*regexp.Regexp{
		paymentXofY,
		installmentXofY,
		ordinalOfY,
	},
	autopay: []*regexp.Regexp{
		willAutoCharge,
		autopayIs,
		automaticPays,
		autopayTurnOn,
	},
	expected: allExpected,
}
