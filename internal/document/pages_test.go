package document

import (
	"reflect"
	"testing"
)

func TestParsePages(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"2", []int{1}},
		{"1, 3-5", []int{0, 2, 3, 4}},
		{"4-4", []int{3}},
	}
	for _, tt := range tests {
		got, err := ParsePages(tt.in)
		if err != nil {
			t.Errorf("ParsePages(%q): %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParsePages(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"0", "a", "3-1", "1,,2", "2-x"} {
		if _, err := ParsePages(bad); err == nil {
			t.Errorf("ParsePages(%q): expected error", bad)
		}
	}
}
