package payload

// Rule selects how the value of an answer is extracted
type Rule int

const (
	RuleFallback Rule = iota
	RuleText
	RuleEmail
	RuleChoice
	RuleChoices
	RuleNumber
	RuleBoolean
	RuleDate
	RulePhone
	RuleURL
	RuleFile
	RulePayment
	RuleGroup
	RuleStatement
)

var fieldTypeRules = map[string]Rule{
	"text":            RuleText,
	"short_text":      RuleText,
	"long_text":       RuleText,
	"email":           RuleEmail,
	"choice":          RuleChoice,
	"single_choice":   RuleChoice,
	"dropdown":        RuleChoice,
	"choices":         RuleChoices,
	"multiple_choice": RuleChoices,
	"number":          RuleNumber,
	"rating":          RuleNumber,
	"opinion_scale":   RuleNumber,
	"nps":             RuleNumber,
	"boolean":         RuleBoolean,
	"yes_no":          RuleBoolean,
	"legal":           RuleBoolean,
	"date":            RuleDate,
	"phone_number":    RulePhone,
	"url":             RuleURL,
	"website":         RuleURL,
	"file_upload":     RuleFile,
	"payment":         RulePayment,
	"group":           RuleGroup,
	"statement":       RuleStatement,
}

// RuleFor returns the extraction rule for a declared field type
func RuleFor(fieldType string) Rule {
	if r, ok := fieldTypeRules[fieldType]; ok {
		return r
	}
	return RuleFallback
}

// String returns the string representation of the rule
func (r Rule) String() string {
	switch r {
	case RuleText:
		return "text"
	case RuleEmail:
		return "email"
	case RuleChoice:
		return "choice"
	case RuleChoices:
		return "choices"
	case RuleNumber:
		return "number"
	case RuleBoolean:
		return "boolean"
	case RuleDate:
		return "date"
	case RulePhone:
		return "phone"
	case RuleURL:
		return "url"
	case RuleFile:
		return "file"
	case RulePayment:
		return "payment"
	case RuleGroup:
		return "group"
	case RuleStatement:
		return "statement"
	default:
		return "fallback"
	}
}

// IsMultipleChoice reports whether the field type allows several selections
func IsMultipleChoice(fieldType string) bool {
	return fieldType == "choices" || fieldType == "multiple_choice"
}
