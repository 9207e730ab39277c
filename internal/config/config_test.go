package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault tests that the built-in settings pass their own validation.
func TestDefault(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, 11700.0, s.StockBarLength)
	assert.Equal(t, 32, s.MaxAllowedDiameter())
}

// TestWeights_Validate tests the unit-sum invariant and its tolerance.
func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"exact sum", Weights{0.35, 0.25, 0.2, 0.2}, false},
		{"within tolerance", Weights{0.35 + 5e-7, 0.25, 0.2, 0.2}, false},
		{"sum too low", Weights{0.3, 0.2, 0.2, 0.2}, true},
		{"sum too high", Weights{0.5, 0.3, 0.2, 0.2}, true},
		{"all zero", Weights{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.wantErr {
				assert.ErrorContains(t, err, "must sum to 1.0")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestLoad_EmptyPath tests that a missing path yields the defaults.
func TestLoad_EmptyPath(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

// TestLoad_File tests layering a partial YAML file over the defaults.
func TestLoad_File(t *testing.T) {
	path := writeSettings(t, `
stock_bar_length: 9000
max_layers: 3
allowed_diameters: [18, 22, 28]
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, s.StockBarLength)
	assert.Equal(t, 3, s.MaxLayers)
	assert.Equal(t, []int{18, 22, 28}, s.AllowedDiameters)
	// Untouched fields keep their defaults.
	assert.Equal(t, Default().Weights, s.Weights)
	assert.Equal(t, Default().SideCover, s.SideCover)
}

// TestLoad_SchemaRejection tests that the schema rejects out-of-range
// and wrong-typed values before unmarshalling.
func TestLoad_SchemaRejection(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"diameter out of range", "allowed_diameters: [4]"},
		{"wrong type", "stock_bar_length: eleven-thousand"},
		{"negative spacing", "min_clear_spacing: -5"},
		{"weight above one", "weights:\n  splices: 1.5\n  diversity: 0\n  spacing: 0\n  layering: 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSettings(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

// TestLoad_CrossFieldRejection tests invariants the schema cannot see.
func TestLoad_CrossFieldRejection(t *testing.T) {
	_, err := Load(writeSettings(t, `
weights:
  splices: 0.5
  diversity: 0.5
  spacing: 0.5
  layering: 0.5
`))
	assert.ErrorContains(t, err, "must sum to 1.0")

	_, err = Load(writeSettings(t, `
torsion_top_factor: 0.7
torsion_bot_factor: 0.7
`))
	assert.ErrorContains(t, err, "torsion factors")
}

// TestLoad_MissingFile tests the error for an unreadable path.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read settings")
}

// TestValidateDocument tests direct schema validation of raw documents.
func TestValidateDocument(t *testing.T) {
	assert.NoError(t, ValidateDocument([]byte("stock_bar_length: 11700")))
	assert.ErrorContains(t, ValidateDocument([]byte("max_layers: 0")), "settings rejected")
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
