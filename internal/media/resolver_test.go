package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRelativeRef(t *testing.T) {
	r := NewBaseURLResolver("http://media.local/files/")

	url, err := r.ResolveURL(context.Background(), "uploads/cat.png")
	require.NoError(t, err)
	assert.Equal(t, "http://media.local/files/uploads/cat.png", url)
}

func TestResolveAbsoluteRefPassthrough(t *testing.T) {
	r := NewBaseURLResolver("http://media.local")

	url, err := r.ResolveURL(context.Background(), "https://cdn.example.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.png", url)
}

func TestResolveEmptyRef(t *testing.T) {
	r := NewBaseURLResolver("http://media.local")

	url, err := r.ResolveURL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, url)
}
