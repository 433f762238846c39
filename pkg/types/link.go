package types

// LinkRecord is one anchor scraped from the seed page. Link and Text are nil
// when the anchor has no href attribute or no direct text node.
type LinkRecord struct {
	Link *string `json:"link" yaml:"link"`
	Text *string `json:"text" yaml:"text"`
	Page string  `json:"page" yaml:"page"`
}
