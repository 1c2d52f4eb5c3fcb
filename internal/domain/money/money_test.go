package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		cents    int64
		expected string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{123456, "1234.56"},
		{100, "1.00"},
		{-58874, "-588.74"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.cents))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected int64
		wantErr  bool
	}{
		{"1234.56", 123456, false},
		{"1,234.56", 123456, false},
		{"10", 1000, false},
		{"0.05", 5, false},
		{"-588.74", -58874, false},
		{"1.005", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSum(t *testing.T) {
	assert.Equal(t, int64(0), Sum())
	assert.Equal(t, int64(50500), Sum(30000, 15000, 5500))
}

func TestMeanRounded(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		count    int64
		expected int64
	}{
		{"zero count", 100, 0, 0},
		{"exact", 300, 3, 100},
		{"rounds half up", 101, 2, 51},
		{"rounds down below half", 100, 3, 33},
		{"rounds up above half", 200, 3, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MeanRounded(tt.total, tt.count))
		})
	}
}
