package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "braced substitution",
			input: "api_key_env: ${OPENAI_API_KEY}",
			env:   map[string]string{"OPENAI_API_KEY": "secret123"},
			want:  "api_key_env: secret123",
		},
		{
			name:  "bare substitution",
			input: "api_key_env: $OPENAI_API_KEY",
			env:   map[string]string{"OPENAI_API_KEY": "secret123"},
			want:  "api_key_env: secret123",
		},
		{
			name:  "multiple variables",
			input: "${DB_HOST}:${DB_PORT}",
			env:   map[string]string{"DB_HOST": "localhost", "DB_PORT": "5432"},
			want:  "localhost:5432",
		},
		{
			name:  "missing variable expands to empty string",
			input: "value: ${NOT_SET_ANYWHERE}",
			env:   nil,
			want:  "value: ",
		},
		{
			name:  "no variables is a no-op",
			input: "dimension: 1536",
			env:   nil,
			want:  "dimension: 1536",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got := ExpandEnv([]byte(tt.input))
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExpandEnvEmptyInput(t *testing.T) {
	got := ExpandEnv([]byte(""))
	assert.Equal(t, "", string(got))
}
