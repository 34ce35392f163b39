package testutil

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// ParseUUID parses an id taken from a response body.
func ParseUUID(t *testing.T, raw string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(raw)
	require.NoError(t, err, "id %q", raw)
	return id
}

// DecodeJSON unmarshals a response body into a generic map.
func DecodeJSON(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), "response %q", string(body))
	return out
}
