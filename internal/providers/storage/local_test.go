package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name := ObjectName("night audit", "Daily Report 2024-06-10", "pdf")
	assert.True(t, strings.HasPrefix(name, "night-audit/daily-report-2024-06-10-"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	ref, err := s.Put(ctx, name, "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "file://"+name, ref)

	r, err := s.Open(ctx, ref)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../outside.pdf", "application/pdf", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = s.Open(context.Background(), "file://missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestObjectNameIsUnique(t *testing.T) {
	a := ObjectName("", "report", ".xlsx")
	b := ObjectName("", "report", ".xlsx")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".xlsx"))
}
