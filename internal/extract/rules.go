// Package extract recovers paper metadata from a parsed detail page using
// ordered heuristic rules. Extraction never fails: a structural miss leaves
// the affected field at its zero value.
package extract

// Rules tunes the heuristics. Zero values fall back to DefaultRules.
type Rules struct {
	// AuthorKeywords marks a paragraph as an author block when one of them
	// appears alongside a parenthesis pair.
	AuthorKeywords []string `mapstructure:"author_keywords"`
	// AbstractSkipKeywords identifies author-like paragraphs inside the
	// paper-data block that precede the abstract.
	AbstractSkipKeywords []string `mapstructure:"abstract_skip_keywords"`
	AuthorScanLimit      int      `mapstructure:"author_scan_limit"`
	MaxAuthorLength      int      `mapstructure:"max_author_length"`
	// AuthorListMaxLength caps the length of a paragraph still treated as an
	// author list by the abstract pass.
	AuthorListMaxLength      int      `mapstructure:"author_list_max_length"`
	MinAbstractLength        int      `mapstructure:"min_abstract_length"`
	MinHeadingAbstractLength int      `mapstructure:"min_heading_abstract_length"`
	VideoHosts               []string `mapstructure:"video_hosts"`
	CodeHosts                []string `mapstructure:"code_hosts"`
}

// DefaultRules returns the heuristics tuned for the NDSS paper pages.
func DefaultRules() Rules {
	return Rules{
		AuthorKeywords: []string{
			"University", "Institute", "Lab", "Inc", "Corp",
			"Google", "Microsoft", "Meta", "KAIST",
		},
		AbstractSkipKeywords:     []string{"University", "Institute", "Inc", "Corp", "Lab", "Center"},
		AuthorScanLimit:          10,
		MaxAuthorLength:          200,
		AuthorListMaxLength:      800,
		MinAbstractLength:        100,
		MinHeadingAbstractLength: 50,
		VideoHosts:               []string{"youtube.com", "youtu.be"},
		CodeHosts:                []string{"github", "gitlab"},
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if len(r.AuthorKeywords) == 0 {
		r.AuthorKeywords = d.AuthorKeywords
	}
	if len(r.AbstractSkipKeywords) == 0 {
		r.AbstractSkipKeywords = d.AbstractSkipKeywords
	}
	if r.AuthorScanLimit <= 0 {
		r.AuthorScanLimit = d.AuthorScanLimit
	}
	if r.MaxAuthorLength <= 0 {
		r.MaxAuthorLength = d.MaxAuthorLength
	}
	if r.AuthorListMaxLength <= 0 {
		r.AuthorListMaxLength = d.AuthorListMaxLength
	}
	if r.MinAbstractLength <= 0 {
		r.MinAbstractLength = d.MinAbstractLength
	}
	if r.MinHeadingAbstractLength <= 0 {
		r.MinHeadingAbstractLength = d.MinHeadingAbstractLength
	}
	if len(r.VideoHosts) == 0 {
		r.VideoHosts = d.VideoHosts
	}
	if len(r.CodeHosts) == 0 {
		r.CodeHosts = d.CodeHosts
	}
	return r
}
