package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"concierge_backend/platform/apperr"
	"concierge_backend/platform/phone"
)

// Field identifies one collectable customer detail.
type Field string

const (
	FieldName  Field = "name"
	FieldAge   Field = "age"
	FieldID    Field = "id"
	FieldPhone Field = "phone"
	FieldImage Field = "image"
)

// Step names returned to the caller so it knows what to ask for next.
const (
	StepCollectName    = "collect_name"
	StepCollectAge     = "collect_age"
	StepCollectID      = "collect_id"
	StepCollectPhone   = "collect_phone"
	StepCollectImage   = "collect_image"
	StepReadyToConfirm = "ready_to_confirm"
)

// Descriptor couples a field with its validator and collection priority.
type Descriptor struct {
	Field    Field
	Validate func(raw string) (string, error)
	Priority int
}

// Descriptors is the single source of scalar field order. Lower priority
// is collected first.
var Descriptors = []Descriptor{
	{Field: FieldName, Validate: ValidateName, Priority: 0},
	{Field: FieldAge, Validate: ValidateAge, Priority: 1},
	{Field: FieldID, Validate: ValidateID, Priority: 2},
	{Field: FieldPhone, Validate: ValidatePhone, Priority: 3},
}

const (
	minAge = 18
	maxAge = 120
)

var (
	// Latin or Arabic letters plus spaces. Digits and punctuation are
	// rejected so an ID number pasted into the name step fails loudly.
	namePattern  = regexp.MustCompile(`^[A-Za-z\x{0600}-\x{06FF} ]+$`)
	idPattern    = regexp.MustCompile(`^[0-9]{10}$`)
	phonePattern = regexp.MustCompile(`^(5[0-9]{8}|05[0-9]{8})$`)
)

// ValidateName checks a customer name and returns it with whitespace
// collapsed. At least two words are required.
func ValidateName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", apperr.Validation("Please provide your full name (first and last name).")
	}
	if !namePattern.MatchString(name) {
		return "", apperr.Validation("Name may only contain letters. Please provide your full name (first and last name).")
	}
	if len(strings.Fields(name)) < 2 {
		return "", apperr.Validation("Please provide your full name (first and last name).")
	}
	return name, nil
}

// ValidateAge parses an age and returns its canonical decimal form.
func ValidateAge(raw string) (string, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", apperr.Validation("Age must be a number between 18 and 120.")
	}
	if age < minAge || age > maxAge {
		return "", apperr.Validation("Age must be between 18 and 120.")
	}
	return strconv.Itoa(age), nil
}

// ValidateID checks a national ID or iqama number: exactly ten digits.
func ValidateID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if !idPattern.MatchString(id) {
		return "", apperr.Validation("ID number must be exactly 10 digits.")
	}
	return id, nil
}

// ValidatePhone checks a Saudi mobile number and returns it in E.164
// form. Spaces and hyphens are stripped before matching, so both
// "05x xxx xxxx" and "5xxxxxxxx" pass.
func ValidatePhone(raw string) (string, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	if !phonePattern.MatchString(digits) {
		return "", apperr.Validation("Phone must be 9 digits starting with 5 or 10 digits starting with 05.")
	}
	return phone.CanonicalMobile(digits), nil
}

// Progress captures which details a session has collected so far.
type Progress struct {
	HasService    bool
	HasName       bool
	HasAge        bool
	HasID         bool
	HasPhone      bool
	ImageUploaded bool
	ImageVerified bool
}

func (p Progress) has(f Field) bool {
	switch f {
	case FieldName:
		return p.HasName
	case FieldAge:
		return p.HasAge
	case FieldID:
		return p.HasID
	case FieldPhone:
		return p.HasPhone
	case FieldImage:
		return p.ImageVerified
	}
	return false
}

// MissingFields lists the unfilled fields in priority order. The image
// counts as missing until its upload has been verified.
func (p Progress) MissingFields() []Field {
	missing := make([]Field, 0, len(Descriptors)+1)
	for _, d := range Descriptors {
		if !p.has(d.Field) {
			missing = append(missing, d.Field)
		}
	}
	if !p.ImageVerified {
		missing = append(missing, FieldImage)
	}
	return missing
}

// ScalarsComplete reports whether every non-image field is filled.
func (p Progress) ScalarsComplete() bool {
	for _, d := range Descriptors {
		if !p.has(d.Field) {
			return false
		}
	}
	return true
}

// Complete reports whether the order is ready to confirm.
func (p Progress) Complete() bool {
	return p.ScalarsComplete() && p.ImageVerified
}

// NextStep names the next collection action: the first missing scalar
// field, then the image, then ready_to_confirm.
func (p Progress) NextStep() string {
	for _, d := range Descriptors {
		if !p.has(d.Field) {
			return "collect_" + string(d.Field)
		}
	}
	if !p.ImageVerified {
		return StepCollectImage
	}
	return StepReadyToConfirm
}

// Affirmatives that finalize an order. Matching is exact on the
// trimmed, lowercased reply, never substring, so "yesterday" does not
// confirm anything.
var confirmWords = []string{"yes", "نعم", "confirm", "أكد", "موافق", "ok", "تأكيد", "تاكيد"}

// IsAffirmative reports whether a reply counts as order confirmation.
func IsAffirmative(text string) bool {
	folded := strings.ToLower(strings.TrimSpace(text))
	for _, w := range confirmWords {
		if folded == w {
			return true
		}
	}
	return false
}

// Reference derives the human-readable order code shown to customers
// from the order id, e.g. "SO-3F2A9B1C".
func Reference(orderID uuid.UUID) string {
	return "SO-" + strings.ToUpper(orderID.String()[:8])
}
