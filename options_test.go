package novelreview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	t.Run("returns empty options when no options provided", func(t *testing.T) {
		opts := ApplyOptions()
		assert.NotNil(t, opts)
		assert.Empty(t, opts.Model)
		assert.Zero(t, opts.MaxTokens)
		assert.Nil(t, opts.Temperature)
		assert.Equal(t, ResponseFormatText, opts.ResponseFormat)
	})

	t.Run("applies multiple options", func(t *testing.T) {
		opts := ApplyOptions(
			WithModel("gpt-4o-mini"),
			WithMaxTokens(1000),
			WithTemperature(0.3),
			WithJSONResponse(),
		)

		assert.Equal(t, "gpt-4o-mini", opts.Model)
		assert.Equal(t, 1000, opts.MaxTokens)
		require.NotNil(t, opts.Temperature)
		assert.Equal(t, 0.3, *opts.Temperature)
		assert.Equal(t, ResponseFormatJSON, opts.ResponseFormat)
	})

	t.Run("later options override earlier ones", func(t *testing.T) {
		opts := ApplyOptions(WithModel("a"), WithModel("b"))
		assert.Equal(t, "b", opts.Model)
	})
}

func TestUsageAdd(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5}.Add(Usage{InputTokens: 1, OutputTokens: 2})
	assert.Equal(t, Usage{InputTokens: 11, OutputTokens: 7}, u)
}

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "s"}, SystemMessage("s"))
	assert.Equal(t, Message{Role: RoleUser, Content: "u"}, UserMessage("u"))
	assert.Regexp(t, `^msg-[0-9a-f-]{36}$`, GenerateMessageID())
}
