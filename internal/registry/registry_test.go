package registry

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/pkg/platform/sentinel"
)

func TestLoad(t *testing.T) {
	r, err := Load()
	require.NoError(t, err)

	t.Run("agencies sorted by name", func(t *testing.T) {
		agencies := r.Agencies()
		require.NotEmpty(t, agencies)
		assert.True(t, sort.SliceIsSorted(agencies, func(i, j int) bool {
			return agencies[i].Name < agencies[j].Name
		}))
	})

	t.Run("lookup by name", func(t *testing.T) {
		a, err := r.AgencyByName("Environmental Protection Agency")
		require.NoError(t, err)
		require.NotEmpty(t, a.CFRReferences)
		assert.Equal(t, 40, a.CFRReferences[0].Title)
	})

	t.Run("unknown agency", func(t *testing.T) {
		_, err := r.AgencyByName("Ministry of Silly Walks")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("all fifty titles present", func(t *testing.T) {
		titles := r.Titles()
		require.Len(t, titles, 50)
		assert.Equal(t, "General Provisions", titles[0].Name)

		reserved, err := r.TitleByID(35)
		require.NoError(t, err)
		assert.Equal(t, "Reserved", reserved.Name)
	})

	t.Run("unknown title", func(t *testing.T) {
		_, err := r.TitleByID(51)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestChapterRefs(t *testing.T) {
	t.Run("filters chapterless references", func(t *testing.T) {
		a := Agency{
			Name: "Test",
			CFRReferences: []CFRRef{
				{Title: 7, Chapter: ""},
				{Title: 7, Chapter: "I"},
				{Title: 9, Chapter: "III"},
			},
		}
		refs := a.ChapterRefs()
		require.Len(t, refs, 2)
		assert.Equal(t, CFRRef{Title: 7, Chapter: "I"}, refs[0])
	})

	t.Run("subtitle-only agency yields no refs", func(t *testing.T) {
		r, err := Load()
		require.NoError(t, err)
		pres, err := r.AgencyByName("The President")
		require.NoError(t, err)
		assert.Empty(t, pres.ChapterRefs())
	})
}
