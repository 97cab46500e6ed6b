package jsonextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"mood":"sad"}`, `{"mood":"sad"}`},
		{"leading prose", "Sure! Here is the analysis:\n{\"mood\":\"happy\",\"habits\":[]}", `{"mood":"happy","habits":[]}`},
		{"trailing prose", `{"a":1} hope that helps`, `{"a":1}`},
		{"nested", `x {"a":{"b":{"c":1}},"d":2} y`, `{"a":{"b":{"c":1}},"d":2}`},
		{"braces in strings", `{"title":"use {curly} braces \"}\"","n":1}`, `{"title":"use {curly} braces \"}\"","n":1}`},
		{"code fence", "```json\n{\"mood\":\"tired\"}\n```", `{"mood":"tired"}`},
		{"two objects", `{"first":1}{"second":2}`, `{"first":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstObject(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstObject_Failures(t *testing.T) {
	_, err := FirstObject("no json here")
	assert.ErrorIs(t, err, ErrNoObject)

	_, err = FirstObject("")
	assert.ErrorIs(t, err, ErrNoObject)

	_, err = FirstObject(`prefix {"mood":"sad", "habits":[`)
	assert.ErrorIs(t, err, ErrUnbalanced)

	_, err = FirstObject(`{"title":"unterminated }`)
	assert.ErrorIs(t, err, ErrUnbalanced)
}
