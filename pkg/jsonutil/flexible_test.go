package jsonutil

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFlexibleBool(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"native true", `true`, true},
		{"native false", `false`, false},
		{"quoted true", `"true"`, true},
		{"quoted yes", `"yes"`, true},
		{"quoted false", `"false"`, false},
		{"quoted garbage", `"maybe"`, false},
		{"number one", `1`, true},
		{"number zero", `0`, false},
		{"null", `null`, false},
		{"object", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b FlexibleBool
			if err := json.Unmarshal([]byte(tt.raw), &b); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bool(b) != tt.want {
				t.Errorf("got %v, want %v", bool(b), tt.want)
			}
		})
	}
}

func TestFlexibleFloat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"native float", `0.85`, 0.85},
		{"native int", `3`, 3},
		{"quoted float", `"0.7"`, 0.7},
		{"quoted percent", `"85%"`, 85},
		{"quoted garbage", `"high"`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexibleFloat
			if err := json.Unmarshal([]byte(tt.raw), &f); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if float64(f) != tt.want {
				t.Errorf("got %v, want %v", float64(f), tt.want)
			}
		})
	}
}

func TestFlexibleStringSlice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"string array", `["a","b"]`, []string{"a", "b"}},
		{"single string", `"a"`, []string{"a"}},
		{"mixed scalars", `["a", 2, true]`, []string{"a", "2", "true"}},
		{"null", `null`, nil},
		{"empty array", `[]`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s FlexibleStringSlice
			if err := json.Unmarshal([]byte(tt.raw), &s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual([]string(s), tt.want) {
				t.Errorf("got %#v, want %#v", []string(s), tt.want)
			}
		})
	}
}

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"hello"`, "hello"},
		{"integer", `42`, "42"},
		{"float", `0.5`, "0.5"},
		{"bool", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringValue(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
