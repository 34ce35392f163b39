package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"string", `{"v":"12.50"}`, "12.50"},
		{"integer", `{"v":7}`, "7"},
		{"float", `{"v":12.5}`, "12.5"},
		{"null", `{"v":null}`, ""},
		{"bool", `{"v":true}`, "true"},
		{"missing", `{}`, ""},
		{"padded", `{"v":"  Medical "}`, "Medical"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				V FlexString `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.input), &out))
			assert.Equal(t, tc.expected, out.V.String())
		})
	}
}

func TestFlexString_RejectsObjects(t *testing.T) {
	var out struct {
		V FlexString `json:"v"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"v":{"a":1}}`), &out))
}

func TestFlexString_UnmarshalParam(t *testing.T) {
	var f FlexString
	require.NoError(t, f.UnmarshalParam("undefined"))
	assert.Equal(t, "undefined", f.String())
}
