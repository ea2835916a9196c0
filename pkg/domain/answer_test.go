package domain

import "testing"

func TestParseAnswer_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		kind    StepKind
		encoded string
		want    Answer
	}{
		{"fixed option", StepKindChoice, "mumbai", Fixed("mumbai")},
		{"other with text", StepKindChoice, "other:Pune", Other("Pune")},
		{"other without text", StepKindChoice, "other", Other("")},
		{"other text containing prefix", StepKindChoice, "other:other:x", Other("other:x")},
		{"unanswered", StepKindChoice, "", Answer{}},
		{"amount", StepKindAmount, "15000", Amount("15000")},
		{"empty amount", StepKindAmount, "", Amount("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnswer(tt.kind, tt.encoded)
			if got != tt.want {
				t.Fatalf("ParseAnswer(%q) = %+v, want %+v", tt.encoded, got, tt.want)
			}
			if enc := got.Encode(); enc != tt.encoded {
				t.Errorf("Encode() = %q, want %q", enc, tt.encoded)
			}
		})
	}
}

func TestAnswer_Option(t *testing.T) {
	if got := Other("Pune").Option(); got != OtherOptionValue {
		t.Errorf("Other.Option() = %q, want %q", got, OtherOptionValue)
	}
	if got := Other("Pune").Text(); got != "Pune" {
		t.Errorf("Other.Text() = %q, want Pune", got)
	}
	if got := Fixed("flat").Text(); got != "" {
		t.Errorf("Fixed.Text() = %q, want empty", got)
	}
	if !(Answer{}).IsZero() {
		t.Error("zero Answer should report IsZero")
	}
}

func TestState_SnapshotIsolation(t *testing.T) {
	s := NewState("s1")
	s.Answers["city"] = Fixed("pune")
	s.Auth.Errors = map[string]string{FieldName: "Name too short"}
	s.History = append(s.History, "city")

	c := s.Snapshot()
	c.Answers["city"] = Fixed("delhi")
	c.Auth.Errors[FieldName] = "changed"
	c.History[0] = "changed"

	if s.Answers["city"] != Fixed("pune") {
		t.Error("snapshot shares Answers with original")
	}
	if s.Auth.Errors[FieldName] != "Name too short" {
		t.Error("snapshot shares Auth.Errors with original")
	}
	if s.History[0] != "city" {
		t.Error("snapshot shares History with original")
	}
}
