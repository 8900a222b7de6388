package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.InDelta(t, 0.4, config.Temperature, 0.001)
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{Provider: ProviderGemini}
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierAdvanced, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, "custom-model", newConfig.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
	assert.Equal(t, config.Temperature, newConfig.Temperature)

	empty := (&Config{}).WithModel(TierLite, "only")
	assert.Equal(t, "only", empty.GetModel(TierLite))
}

func TestParseModelTier(t *testing.T) {
	tests := []struct {
		input   string
		want    ModelTier
		wantErr bool
	}{
		{"", TierStandard, false},
		{"lite", TierLite, false},
		{" Standard ", TierStandard, false},
		{"ADVANCED", TierAdvanced, false},
		{"ultra", "", true},
	}

	for _, tt := range tests {
		got, err := ParseModelTier(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(t.Context(), nil, "")
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = NewClient(t.Context(), &Config{Provider: "other"}, "key")
	assert.Error(t, err)
}
