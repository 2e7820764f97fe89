package validator

import "testing"

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("Required", func(t *testing.T) {
		type input struct {
			UserID int64 `validate:"required,gt=0"`
		}

		if err := v.Validate(input{UserID: 7}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := v.Validate(input{}); err == nil {
			t.Fatalf("expected a validation error for the zero value")
		}
	})

	t.Run("OTPCodeRule", func(t *testing.T) {
		type input struct {
			Code string `validate:"required,otpcode"`
		}

		cases := []struct {
			code string
			ok   bool
		}{
			{"123456", true},
			{"000000", true},
			{"12345", false},
			{"1234567", false},
			{"12345a", false},
			{"12 456", false},
		}

		for _, tc := range cases {
			err := v.Validate(input{Code: tc.code})
			if tc.ok && err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tc.code, err)
			}
			if !tc.ok && err == nil {
				t.Errorf("Validate(%q) = nil, want error", tc.code)
			}
		}
	})
}
