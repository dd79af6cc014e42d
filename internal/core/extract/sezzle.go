package extract

import "regexp"

// Sezzle: "Your next installment of $37.50 is scheduled for Mar 3, 2025.
// Installment 3 of 4. Autopay: enabled."
var sezzle = strategy{
	dueDate: []*regexp.Regexp{
		scheduledFor,
		dueDateLabel,
		dueOn,
		chargedOn,
	},
	amount: []*regexp.Regexp{
		installmentOf,
		paymentOf,
		amountLabel,
		amountIsDue,
	},
	installment: []*regexp.Regexp{
		installmentXofY,
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
