package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack23912/webscrapbook/internal/entity"
)

func TestParsePolicies(t *testing.T) {
	m, err := entity.ParsePolicies("script=remove, image=SAVE,,frame=link")
	require.NoError(t, err)
	assert.Equal(t, map[entity.Category]entity.Policy{
		entity.CategoryScript: entity.PolicyRemove,
		entity.CategoryImage:  entity.PolicySave,
		entity.CategoryFrame:  entity.PolicyLink,
	}, m)
	assert.Equal(t, "frame=link,image=save,script=remove", entity.FormatPolicies(m))

	_, err = entity.ParsePolicies("script=nuke")
	assert.ErrorIs(t, err, entity.ErrInvalidPolicy)

	_, err = entity.ParsePolicies("sound=save")
	assert.ErrorIs(t, err, entity.ErrInvalidCategory)

	_, err = entity.ParsePolicies("script")
	assert.ErrorIs(t, err, entity.ErrInvalidPolicy)
}

func TestCaptureOptions_PolicyFor(t *testing.T) {
	base := entity.DefaultOptions()
	assert.Equal(t, entity.PolicySave, base.PolicyFor(entity.CategoryImage))

	derived := base.WithPolicy(entity.CategoryImage, entity.PolicyBlank)
	assert.Equal(t, entity.PolicyBlank, derived.PolicyFor(entity.CategoryImage))
	assert.Equal(t, entity.PolicySave, base.PolicyFor(entity.CategoryImage), "original must not change")

	require.NoError(t, derived.Validate())
	derived.BaseHrefMode = "drop"
	assert.ErrorIs(t, derived.Validate(), entity.ErrInvalidBaseHrefMode)
}

func TestCaptureSettings_ForFrame(t *testing.T) {
	main := entity.NewSettings("s1")
	child := main.ForFrame("http://a/")
	grandchild := child.ForFrame("http://b/")

	assert.False(t, child.IsMainFrame)
	assert.Equal(t, 2, grandchild.FrameDepth)
	assert.Equal(t, []string{"http://a/", "http://b/"}, grandchild.FrameChain)
	assert.Equal(t, []string{"http://a/"}, child.FrameChain)
	assert.True(t, grandchild.InChain("http://a/"))
	assert.False(t, main.InChain("http://a/"))
}
