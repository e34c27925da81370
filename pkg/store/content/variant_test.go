package content_test

import (
	"testing"

	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariantSize(t *testing.T) {
	for _, valid := range []string{"small", "medium", "large"} {
		size, err := content.ParseVariantSize(valid)
		require.NoError(t, err)
		assert.Equal(t, content.VariantSize(valid), size)
	}

	for _, invalid := range []string{"", "tiny", "SMALL", "xlarge", "100"} {
		_, err := content.ParseVariantSize(invalid)
		assert.ErrorIs(t, err, content.ErrUnknownVariant, "token %q", invalid)
	}
}

func TestVariantWidths(t *testing.T) {
	assert.Equal(t, 100, content.VariantSmall.Width())
	assert.Equal(t, 250, content.VariantMedium.Width())
	assert.Equal(t, 500, content.VariantLarge.Width())
}

func TestVariantContentID(t *testing.T) {
	primary := metadata.ContentID("550e8400-e29b-41d4-a716-446655440000")

	assert.Equal(t,
		metadata.ContentID("550e8400-e29b-41d4-a716-446655440000_100"),
		content.VariantContentID(primary, content.VariantSmall))
	assert.Equal(t,
		metadata.ContentID("550e8400-e29b-41d4-a716-446655440000_500"),
		content.VariantContentID(primary, content.VariantLarge))
}
