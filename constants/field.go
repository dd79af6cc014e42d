package constants

// Field names one extractable piece of a payment reminder.
type Field string

const (
	FieldDueDate          Field = "due_date"
	FieldAmount           Field = "amount"
	FieldInstallmentIndex Field = "installment_index"
	FieldInstallmentTotal Field = "installment_total"
	FieldAutopay          Field = "autopay"
)

// AllFields is the stable order used when reporting fields.
var AllFields = []Field{
	FieldDueDate,
	FieldAmount,
	FieldInstallmentIndex,
	FieldInstallmentTotal,
	FieldAutopay,
}

// LegacyRequiredFields cannot be missing in legacy mode.
var LegacyRequiredFields = []Field{FieldDueDate, FieldAmount}

// Label is the human wording used in warnings.
func (f Field) Label() string {
	switch f {
	case FieldDueDate:
		return "due date"
	case FieldAmount:
		return "amount"
	case FieldInstallmentIndex:
		return "installment number"
	case FieldInstallmentTotal:
		return "installment count"
	case FieldAutopay:
		return "autopay status"
	}
	return string(f)
}
