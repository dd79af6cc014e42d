package extract

import "regexp"

// Affirm loans are monthly: "Your Affirm payment of $120.50 is due on
// February 15, 2025. This is payment 3 of 12. AutoPay is on."
var affirm = strategy{
	dueDate: []*regexp.Regexp{
		dueDateLabel,
		dueOn,
		paymentDate,
		scheduledFor,
	},
	amount: []*regexp.Regexp{
		paymentOf,
		amountLabel,
		minimumDue,
		amountIsDue,
	},
	installment: []*regexp.Regexp{
		paymentXofY,
		ordinalOfY,
	},
	autopay: []*regexp.Regexp{
		autopayIs,
		autopayTurnOn,
		willAutoCharge,
	},
	expected: allExpected,
}
