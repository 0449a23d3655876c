package labelmerge

import "testing"

// testMarkingCode is a structurally valid GS1 marking code: the "01" AI,
// a 14-digit GTIN and a 21-character serial/crypto tail.
const testMarkingCode = "010460123456789021aBcDeF1234567890xyz"

// ---------------------------------------------------------------------------
// TestMarkingCodeGTIN - GTIN extraction from marking codes
// ---------------------------------------------------------------------------

func TestMarkingCodeGTIN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code MarkingCode
		want string
	}{
		{
			name: "AI at offset zero",
			code: testMarkingCode,
			want: "04601234567890",
		},
		{
			name: "AI preceded by another field",
			code: MarkingCode("9100010460123456789021aBcDeF1234567890"),
			want: "04601234567890",
		},
		{
			name: "no AI present",
			code: MarkingCode("serialonly-21aBcDeF1234567890xyz"),
			want: "",
		},
		{
			name: "AI followed by non-digits",
			code: MarkingCode("01ABCDEFGHIJKLMNOPQRSTUVWXYZabc"),
			want: "",
		},
		{
			name: "AI but truncated GTIN",
			code: MarkingCode("01046012"),
			want: "",
		},
		{
			name: "empty code",
			code: MarkingCode(""),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.code.GTIN(); got != tt.want {
				t.Errorf("GTIN() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMarkingCodeBarcode - Retail barcode derivation
// ---------------------------------------------------------------------------

func TestMarkingCodeBarcode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code MarkingCode
		want string
	}{
		{
			name: "leading zero stripped",
			code: testMarkingCode,
			want: "4601234567890",
		},
		{
			name: "only one zero stripped",
			code: MarkingCode("010046012345678921aBcDeF1234567890xyz"),
			want: "0460123456789",
		},
		{
			name: "no GTIN means no barcode",
			code: MarkingCode("not a code"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.code.Barcode(); got != tt.want {
				t.Errorf("Barcode() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMarkingCodeSerial - Serial tail extraction
// ---------------------------------------------------------------------------

func TestMarkingCodeSerial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code MarkingCode
		want string
	}{
		{
			name: "tail after AI at offset zero",
			code: testMarkingCode,
			want: "21aBcDeF1234567890xyz",
		},
		{
			name: "tail after AI found by scan",
			code: MarkingCode("9100010460123456789021aBcDeF1234567890"),
			want: "21aBcDeF1234567890",
		},
		{
			name: "no GTIN means no serial",
			code: MarkingCode("serialonly-21aBcDeF1234567890xyz"),
			want: "",
		},
		{
			name: "empty code",
			code: MarkingCode(""),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.code.Serial(); got != tt.want {
				t.Errorf("Serial() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIsDigits - Digit-string predicate
// ---------------------------------------------------------------------------

func TestIsDigits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"1234567890", true},
		{"0", true},
		{"", false},
		{"12a4", false},
		{"12 34", false},
		{"-123", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := isDigits(tt.in); got != tt.want {
				t.Errorf("isDigits(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMinCodeLength - Structural minimum
// ---------------------------------------------------------------------------

func TestMinCodeLength(t *testing.T) {
	t.Parallel()

	// AI (2) + GTIN (14) + shortest plausible crypto tail (15).
	if minCodeLength != 31 {
		t.Errorf("minCodeLength = %d, want 31", minCodeLength)
	}
	if len(testMarkingCode) < minCodeLength {
		t.Fatalf("test fixture %q is shorter than minCodeLength", testMarkingCode)
	}
}
