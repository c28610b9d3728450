package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() Raw {
	return Raw{
		ID:      1,
		Name:    "example",
		BaseURL: "https://example.com",
		Search: RawSearch{
			URLTemplate:  "https://example.com/search?q={keyword}",
			ListSelector: ".book",
		},
		TOC: RawTOC{
			ListSelector: "li.chapter",
		},
		Chapter: RawChapter{
			ContentSelector: ".content",
		},
	}
}

func TestNormalize_RejectsNonPositiveID(t *testing.T) {
	raw := validRaw()
	raw.ID = 0
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_RejectsRelativeBaseURL(t *testing.T) {
	raw := validRaw()
	raw.BaseURL = "example.com"
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_FallsBackToLegacyURLAlias(t *testing.T) {
	raw := validRaw()
	raw.BaseURL = ""
	raw.URL = "https://legacy.example.com"
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com", r.BaseURL)
}

func TestNormalize_DefaultsEnabledToTrue(t *testing.T) {
	r, err := Normalize(validRaw())
	require.NoError(t, err)
	assert.True(t, r.Enabled)
}

func TestNormalize_RespectsExplicitDisabled(t *testing.T) {
	raw := validRaw()
	disabled := false
	raw.Enabled = &disabled
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.False(t, r.Enabled)
}

func TestNormalize_DefaultsNameFromID(t *testing.T) {
	raw := validRaw()
	raw.Name = ""
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "source-1", r.Name)
}

func TestNormalize_DefaultsEncodingToUTF8(t *testing.T) {
	r, err := Normalize(validRaw())
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", r.Encoding)
}

func TestNormalize_RewritesLegacyPercentSPlaceholder(t *testing.T) {
	raw := validRaw()
	raw.Search.URLTemplate = "https://example.com/search?q=%s"
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/search?q={keyword}", r.Search.URLTemplate)
}

func TestNormalize_FallsBackToLegacyListSelectorAliases(t *testing.T) {
	raw := validRaw()
	raw.Search.ListSelector = ""
	raw.Search.Result = ".result-item"
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, ".result-item", r.Search.ListSelector)
}

func TestNormalize_DefaultsSearchMethodToGET(t *testing.T) {
	r, err := Normalize(validRaw())
	require.NoError(t, err)
	assert.Equal(t, "GET", r.Search.Method)
}

func TestNormalize_UppercasesSearchMethod(t *testing.T) {
	raw := validRaw()
	raw.Search.Method = "post"
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "POST", r.Search.Method)
}

func TestNormalize_RejectsInvalidSearchMethod(t *testing.T) {
	raw := validRaw()
	raw.Search.Method = "PUT"
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_RejectsSearchURLTemplateMissingKeywordPlaceholder(t *testing.T) {
	raw := validRaw()
	raw.Search.URLTemplate = "https://example.com/search?q=fixed"
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_RejectsConfiguredSearchWithoutListSelector(t *testing.T) {
	raw := validRaw()
	raw.Search.ListSelector = ""
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_AllowsEmptySearchWhenNotConfigured(t *testing.T) {
	raw := validRaw()
	raw.Search = RawSearch{}
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.Empty(t, r.Search.URLTemplate)
}

func TestNormalize_DefaultsTOCExtractorsToTextAndHref(t *testing.T) {
	r, err := Normalize(validRaw())
	require.NoError(t, err)
	assert.Equal(t, "text", r.TOC.TitleExtractor)
	assert.Equal(t, "href", r.TOC.URLExtractor)
}

func TestNormalize_RejectsEmptyTOCListSelector(t *testing.T) {
	raw := validRaw()
	raw.TOC.ListSelector = ""
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_RejectsPaginatedTOCWithoutNextPageSelector(t *testing.T) {
	raw := validRaw()
	raw.TOC.HasPages = true
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_AcceptsPaginatedTOCWithNextPageSelector(t *testing.T) {
	raw := validRaw()
	raw.TOC.HasPages = true
	raw.TOC.NextPageSelector = ".next"
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.True(t, r.TOC.HasPages)
}

func TestNormalize_CarriesURLTransform(t *testing.T) {
	raw := validRaw()
	raw.TOC.URLTransform = &struct {
		From string `json:"from"`
		To   string `json:"to"`
	}{From: "page=1", To: "page=2"}
	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.True(t, r.TOC.HasURLTransform())
	assert.Equal(t, "page=1", r.TOC.URLTransformFrom)
	assert.Equal(t, "page=2", r.TOC.URLTransformTo)
}

func TestNormalize_RejectsEmptyChapterContentSelector(t *testing.T) {
	raw := validRaw()
	raw.Chapter.ContentSelector = ""
	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_SetsDefaultTimeouts(t *testing.T) {
	r, err := Normalize(validRaw())
	require.NoError(t, err)
	assert.Equal(t, Timeouts{Search: 8, Detail: 8, TOC: 10, Chapter: 8}, r.Timeouts)
}
