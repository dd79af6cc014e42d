package extract

import (
	"regexp"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

// PayPal Pay in 4: "Your payment 2 of 4 for $62.50 is due on 04/15/2025."
// PayPal always collects automatically and rarely says so, so the autopay
// flag is attempted but not expected.
var paypal = strategy{
	dueDate: []*regexp.Regexp{
		dueDateLabel,
		dueOn,
		chargedOn,
		paymentDate,
	},
	amount: []*regexp.Regexp{
		labelled(`\bpayment\s+\d{1,2}\s+of\s+\d{1,2}\s+for\s+`, amountPat),
		paymentOf,
		amountLabel,
		amountIsDue,
	},
	installment: []*regexp.Regexp{
		paymentXofY,
		installmentXofY,
		ordinalOfY,
	},
	autopay: []*regexp.Regexp{
		autopayIs,
		automaticPays,
		willAutoCharge,
	},
	expected: []constants.Field{
		constants.FieldDueDate,
		constants.FieldAmount,
		constants.FieldInstallmentIndex,
		constants.FieldInstallmentTotal,
	},
}
