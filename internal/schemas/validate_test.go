package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCandidateFeed_Valid(t *testing.T) {
	feed := `{
		"as_of": "2024-05-01",
		"candidates": [
			{"id": "AAPL", "quantity": 95, "target": 100, "metadata": {"sector": "tech"}},
			{"id": "MSFT", "quantity": 410.5},
			{"id": "KO", "quantity": 0, "target": null, "bars": [
				{"date": "2024-04-30", "open": 60, "high": 61, "low": 59, "close": 60.5, "volume": 1000}
			]}
		]
	}`

	assert.NoError(t, ValidateCandidateFeed([]byte(feed)))
}

func TestValidateCandidateFeed_EmptyCandidates(t *testing.T) {
	assert.NoError(t, ValidateCandidateFeed([]byte(`{"candidates": []}`)))
}

func TestValidateCandidateFeed_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		feed  string
		field string
	}{
		{
			name:  "missing candidates",
			feed:  `{"as_of": "2024-05-01"}`,
			field: "(root)",
		},
		{
			name:  "missing id",
			feed:  `{"candidates": [{"quantity": 1}]}`,
			field: "candidates.0",
		},
		{
			name:  "empty id",
			feed:  `{"candidates": [{"id": ""}]}`,
			field: "candidates.0.id",
		},
		{
			name:  "quantity is a string",
			feed:  `{"candidates": [{"id": "A", "quantity": "95"}]}`,
			field: "candidates.0.quantity",
		},
		{
			name:  "metadata is a list",
			feed:  `{"candidates": [{"id": "A", "metadata": ["x"]}]}`,
			field: "candidates.0.metadata",
		},
		{
			name:  "bar without close",
			feed:  `{"candidates": [{"id": "A", "bars": [{"date": "2024-01-02", "high": 2, "low": 1}]}]}`,
			field: "candidates.0.bars.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidateFeed([]byte(tt.feed))
			require.Error(t, err)

			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError type, got %T", err)

			fields := make([]string, 0, len(validationErr.Errors))
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidateCandidateFeed_MalformedDocument(t *testing.T) {
	err := ValidateCandidateFeed([]byte("{ invalid json }"))
	require.Error(t, err)

	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "malformed documents surface as load errors")
}

func TestCandidateFeedSchema_IsEmbedded(t *testing.T) {
	assert.Contains(t, CandidateFeedSchema(), `"candidates"`)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
}

func TestValidationError_Summary(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "a", Message: "x"},
			{Field: "b", Message: "y"},
			{Field: "c", Message: "z"},
		},
	}

	assert.Equal(t, "a: x; b: y; and 1 more", err.Summary(2))
	assert.Equal(t, "a: x; b: y; c: z", err.Summary(0))
}
