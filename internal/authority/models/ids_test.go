package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/mormegil-cz/nklink/pkg/domain-errors"
)

// TestParseAuthorityID_TrustBoundary covers the autid grammar. The value ends
// up in a cache key and inside a query literal, so anything outside
// [A-Za-z0-9_-]{1,32} must be rejected here.
func TestParseAuthorityID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "", "Bad query"},
		{"too long", strings.Repeat("a", 33), "Invalid authority ID"},
		{"slash", "jn/19990210", "Invalid authority ID"},
		{"quote", `jn"19990210`, "Invalid authority ID"},
		{"whitespace", "jn 19990210", "Invalid authority ID"},
		{"unicode", "jn1999021ř", "Invalid authority ID"},
		{"null byte", "jn\x00", "Invalid authority ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAuthorityID(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
			de, _ := dErrors.As(err)
			assert.Equal(t, tt.wantMsg, de.Message)
		})
	}

	t.Run("accepts maximal identifier", func(t *testing.T) {
		raw := strings.Repeat("a", 30) + "_-"
		id, err := ParseAuthorityID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.String())
	})

	t.Run("accepts typical identifier", func(t *testing.T) {
		id, err := ParseAuthorityID("jn19990210040")
		require.NoError(t, err)
		assert.Equal(t, AuthorityID("jn19990210040"), id)
	})
}

func TestParseCallback(t *testing.T) {
	for _, raw := range []string{"cb", "_cb1", "jQuery_123", strings.Repeat("x", 32)} {
		cb, err := ParseCallback(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, cb.String())
	}

	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"missing", "", "Missing callback"},
		{"starts with digit", "1cb", "Invalid callback identifier"},
		{"dotted", "a.b", "Invalid callback identifier"},
		{"script injection", "alert(1);x", "Invalid callback identifier"},
		{"too long", strings.Repeat("x", 33), "Invalid callback identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCallback(tt.input)
			require.Error(t, err)
			de, ok := dErrors.As(err)
			require.True(t, ok)
			assert.Equal(t, dErrors.CodeBadRequest, de.Code)
			assert.Equal(t, tt.wantMsg, de.Message)
		})
	}
}

func TestParseFormat(t *testing.T) {
	_, err := ParseFormat("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	for _, raw := range []string{"json", "jsonp", "redirect", "html"} {
		f, err := ParseFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, f.String())
	}

	_, err = ParseFormat("xml")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestParseDatabase(t *testing.T) {
	db, err := ParseDatabase("orcid")
	require.NoError(t, err)
	assert.Equal(t, DatabaseORCID, db)

	_, err = ParseDatabase("foo")
	require.Error(t, err)
	de, _ := dErrors.As(err)
	assert.Equal(t, "Unsupported target", de.Message)
}
