package rule

import "encoding/json"

// Raw is the loosely typed ingestion shape a rule file actually contains.
// Real-world rule exports use inconsistent legacy field names (url vs
// baseUrl, search.result vs search.list); Raw accepts all of them and
// Normalize folds them into the single canonical Rule schema. Raw is
// never exposed to downstream components.
type Raw struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	BaseURL  string `json:"baseUrl"`
	URL      string `json:"url"` // legacy alias for baseUrl
	Enabled  *bool  `json:"enabled"`
	Encoding string `json:"encoding"`

	Search  RawSearch  `json:"search"`
	Book    RawBook    `json:"book"`
	TOC     RawTOC     `json:"toc"`
	Chapter RawChapter `json:"chapter"`
}

// RawSearch mirrors legacy shapes where the result-list selector was
// called "result" or "list" interchangeably. Only the "search" object is
// read; a search block nested under "searchRule" is not parsed.
type RawSearch struct {
	URLTemplate    string `json:"urlTemplate"`
	URL            string `json:"url"` // legacy alias
	Method         string `json:"method"`
	BodyTemplate   string `json:"bodyTemplate"`
	ListSelector   string `json:"listSelector"`
	Result         string `json:"result"`       // legacy alias for listSelector
	List           string `json:"list"`          // legacy alias for listSelector
	TitleSelector  string `json:"titleSelector"`
	AuthorSelector string `json:"authorSelector"`
	LinkSelector   string `json:"linkSelector"`
	LatestSelector string `json:"latestSelector"`
}

type RawBook struct {
	TitleSelector    string `json:"titleSelector"`
	AuthorSelector   string `json:"authorSelector"`
	IntroSelector    string `json:"introSelector"`
	CoverSelector    string `json:"coverSelector"`
	CategorySelector string `json:"categorySelector"`
	StatusSelector   string `json:"statusSelector"`
}

type RawTOC struct {
	ListSelector     string `json:"listSelector"`
	TitleExtractor   string `json:"titleExtractor"`
	URLExtractor     string `json:"urlExtractor"`
	HasPages         bool   `json:"hasPages"`
	NextPageSelector string `json:"nextPageSelector"`
	URLTransform     *struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"urlTransform"`
}

type RawChapter struct {
	TitleSelector   string   `json:"titleSelector"`
	ContentSelector string   `json:"contentSelector"`
	AdPatterns      []string `json:"adPatterns"`
	RemoveSelectors []string `json:"removeSelectors"`
}

// ParseRawFile parses a JSON array of rules from file bytes.
func ParseRawFile(data []byte) ([]Raw, error) {
	var raws []Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}
