package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Ali Hassan", "Ali Hassan", false},
		{"  Ali   Hassan  ", "Ali Hassan", false},
		{"محمد العتيبي", "محمد العتيبي", false},
		{"Omar بن خالد", "Omar بن خالد", false},
		{"Ali", "", true},
		{"", "", true},
		{"   ", "", true},
		{"Ali123 Hassan", "", true},
		{"Ali-Hassan Omar", "", true},
		{"1234567890", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateAge(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"25", "25", false},
		{"18", "18", false},
		{"120", "120", false},
		{" 30 ", "30", false},
		{"17", "", true},
		{"121", "", true},
		{"0", "", true},
		{"-5", "", true},
		{"25.5", "", true},
		{"abc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateAge(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAge(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateAge(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"1234567890", "1234567890", false},
		{" 1098765432 ", "1098765432", false},
		{"123456789", "", true},
		{"12345678901", "", true},
		{"12345abcde", "", true},
		{"١٢٣٤٥٦٧٨٩٠", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"512345678", "+966512345678", false},
		{"0512345678", "+966512345678", false},
		{"05 1234 5678", "+966512345678", false},
		{"051-234-5678", "+966512345678", false},
		{" 0598765432 ", "+966598765432", false},
		{"412345678", "", true},
		{"0412345678", "", true},
		{"51234567", "", true},
		{"05123456789", "", true},
		{"00512345678", "", true},
		{"+966512345678", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ValidatePhone(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePhone(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidatePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsAffirmative(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes", true},
		{"YES", true},
		{" Yes ", true},
		{"ok", true},
		{"confirm", true},
		{"نعم", true},
		{" تأكيد ", true},
		{"تاكيد", true},
		{"موافق", true},
		{"أكد", true},
		{"no", false},
		{"yes please", false},
		{"yesterday", false},
		{"okay", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsAffirmative(tt.input); got != tt.want {
			t.Errorf("IsAffirmative(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestProgressNextStep(t *testing.T) {
	tests := []struct {
		name string
		p    Progress
		want string
	}{
		{"empty", Progress{HasService: true}, StepCollectName},
		{"name only", Progress{HasService: true, HasName: true}, StepCollectAge},
		{"through age", Progress{HasService: true, HasName: true, HasAge: true}, StepCollectID},
		{"through id", Progress{HasService: true, HasName: true, HasAge: true, HasID: true}, StepCollectPhone},
		{"scalars done", Progress{HasService: true, HasName: true, HasAge: true, HasID: true, HasPhone: true}, StepCollectImage},
		{"uploaded not verified", Progress{HasService: true, HasName: true, HasAge: true, HasID: true, HasPhone: true, ImageUploaded: true}, StepCollectImage},
		{"all done", Progress{HasService: true, HasName: true, HasAge: true, HasID: true, HasPhone: true, ImageUploaded: true, ImageVerified: true}, StepReadyToConfirm},
		{"skipped age", Progress{HasService: true, HasName: true, HasID: true, HasPhone: true}, StepCollectAge},
	}

	for _, tt := range tests {
		if got := tt.p.NextStep(); got != tt.want {
			t.Errorf("%s: NextStep() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestProgressMissingFields(t *testing.T) {
	p := Progress{HasService: true, HasName: true, HasPhone: true}
	got := p.MissingFields()
	want := []Field{FieldAge, FieldID, FieldImage}
	if len(got) != len(want) {
		t.Fatalf("MissingFields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MissingFields()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	done := Progress{HasService: true, HasName: true, HasAge: true, HasID: true, HasPhone: true, ImageUploaded: true, ImageVerified: true}
	if missing := done.MissingFields(); len(missing) != 0 {
		t.Errorf("MissingFields() on complete progress = %v, want empty", missing)
	}
	if !done.Complete() {
		t.Error("Complete() = false on fully collected progress")
	}
}

func TestReference(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"a1b2c3d4-0000-4000-8000-000000000000", "SO-A1B2C3D4"},
		{"0f0e0d0c-1111-4111-8111-111111111111", "SO-0F0E0D0C"},
	}

	for _, tt := range tests {
		if got := Reference(uuid.MustParse(tt.id)); got != tt.want {
			t.Errorf("Reference(%s) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
