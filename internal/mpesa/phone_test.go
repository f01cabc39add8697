package mpesa

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0712345678", want: "254712345678"},
		{in: "0112345678", want: "254112345678"},
		{in: "+254712345678", want: "254712345678"},
		{in: "254712345678", want: "254712345678"},
		{in: "0712 345 678", want: "254712345678"},
		{in: "0712-345-678", want: "254712345678"},
		{in: "712345678", wantErr: true},
		{in: "0812345678", wantErr: true},
		{in: "07123456789", wantErr: true},
		{in: "07123a5678", wantErr: true},
		{in: "", wantErr: true},
		{in: "+", wantErr: true},
	}

	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("NormalizePhone(%q) err = %v, want ErrInvalidPhone", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePhone(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
