package extract

import "regexp"

// Klarna reminders read "Your Klarna payment of $45.00 is due Jan 31, 2025
// (installment 2 of 4)" or "$45.00 will be collected on Feb 14, 2025".
var klarna = strategy{
	dueDate: []*regexp.Regexp{
		dueDateLabel,
		dueOn,
		labelled(`\bwill\s+be\s+(?:collected|charged|taken)\s+on\s+`, datePat),
		chargedOn,
		paymentDate,
	},
	amount: []*regexp.Regexp{
		paymentOf,
		amountIsDue,
		amountLabel,
	},
	installment: []*regexp.Regexp{
		installmentXofY,
		paymentXofY,
		ordinalOfY,
	},
	autopay: []*regexp.Regexp{
		automaticPays,
		autopayIs,
		autopayTurnOn,
		willAutoCharge,
	},
	expected: allExpected,
}
