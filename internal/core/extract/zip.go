package extract

import "regexp"

// Zip (formerly Quadpay): "Your Zip payment of $30.00 is due Mar 10, 2025.
// Installment #2 of 4." Some reminders only carry "Installment #2".
var zip = strategy{
	dueDate: []*regexp.Regexp{
		dueDateLabel,
		dueOn,
		chargedOn,
		scheduledFor,
	},
	amount: []*regexp.Regexp{
		paymentOf,
		installmentOf,
		amountIsDue,
		amountLabel,
	},
	installment: []*regexp.Regexp{
		installmentXofY,
		paymentXofY,
		installmentX,
	},
	autopay: []*regexp.Regexp{
		willAutoCharge,
		autopayIs,
		autopayTurnOn,
	},
	expected: allExpected,
}
