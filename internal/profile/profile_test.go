package profile

import (
	"os"
	"testing"
)

func TestProfileDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"AIBaseURL default", "https://api.openai.com/v1", profile.AIBaseURL},
		{"AIChatModel default", "gpt-4o-mini", profile.AIChatModel},
		{"AIEmbeddingModel default", "text-embedding-3-small", profile.AIEmbeddingModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.AIEmbeddingEnabled {
		t.Error("AIEmbeddingEnabled should be false by default")
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "CONVERSE_AI_API_KEY",
			envVar:   "CONVERSE_AI_API_KEY",
			envValue: "test-key-123",
			field:    func(p *Profile) string { return p.AIAPIKey },
			expected: "test-key-123",
		},
		{
			name:     "CONVERSE_AI_BASE_URL",
			envVar:   "CONVERSE_AI_BASE_URL",
			envValue: "https://custom.openai.proxy/v1",
			field:    func(p *Profile) string { return p.AIBaseURL },
			expected: "https://custom.openai.proxy/v1",
		},
		{
			name:     "CONVERSE_AI_CHAT_MODEL",
			envVar:   "CONVERSE_AI_CHAT_MODEL",
			envValue: "gpt-4",
			field:    func(p *Profile) string { return p.AIChatModel },
			expected: "gpt-4",
		},
		{
			name:     "CONVERSE_DRIVER",
			envVar:   "CONVERSE_DRIVER",
			envValue: "postgres",
			field:    func(p *Profile) string { return p.Driver },
			expected: "postgres",
		},
		{
			name:     "CONVERSE_DSN",
			envVar:   "CONVERSE_DSN",
			envValue: "postgres://converse@localhost/converse",
			field:    func(p *Profile) string { return p.DSN },
			expected: "postgres://converse@localhost/converse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name           string
		apiKey         string
		expectedResult bool
	}{
		{"no API key should return false", "", false},
		{"API key set should return true", "test-key", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{AIAPIKey: tt.apiKey}
			if result := profile.IsAIEnabled(); result != tt.expectedResult {
				t.Errorf("IsAIEnabled(): expected %v, got %v", tt.expectedResult, result)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("DefaultsToSQLiteAndDemo", func(t *testing.T) {
		profile := &Profile{Mode: "bogus", Data: t.TempDir()}
		if err := profile.Validate(); err != nil {
			t.Fatalf("Validate() returned error: %v", err)
		}
		if profile.Mode != "demo" {
			t.Errorf("Mode: expected demo, got %q", profile.Mode)
		}
		if profile.Driver != "sqlite" {
			t.Errorf("Driver: expected sqlite, got %q", profile.Driver)
		}
		if profile.DSN == "" {
			t.Error("DSN should be derived for sqlite")
		}
	})

	t.Run("PostgresRequiresDSN", func(t *testing.T) {
		profile := &Profile{Mode: "dev", Driver: "postgres", Data: t.TempDir()}
		if err := profile.Validate(); err == nil {
			t.Error("Validate() should fail when postgres has no DSN")
		}
	})
}

func clearEnvVars() {
	envVars := []string{
		"CONVERSE_MODE",
		"CONVERSE_DATA",
		"CONVERSE_DSN",
		"CONVERSE_DRIVER",
		"CONVERSE_AI_API_KEY",
		"CONVERSE_AI_BASE_URL",
		"CONVERSE_AI_CHAT_MODEL",
		"CONVERSE_AI_EMBEDDING_MODEL",
		"CONVERSE_AI_EMBEDDING_ENABLED",
	}
	for _, envVar := range envVars {
		os.Unsetenv(envVar)
	}
}
