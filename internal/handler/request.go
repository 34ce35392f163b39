package handler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string, number, bool or null, and a plain form
// value, keeping the raw text. Browsers send catalog numbers either way.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatBool(b))
	return nil
}

// UnmarshalParam lets gin's form binding fill a FlexString.
func (f *FlexString) UnmarshalParam(param string) error {
	*f = FlexString(param)
	return nil
}

func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}
