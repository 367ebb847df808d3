// Package extracthtml turns HTML pages into tables, either from a <table>
// element or from repeated record containers described by a mapping file.
package extracthtml

// Mapping represents one extraction rule in record mode.
type Mapping struct {
	Selector string `json:"selector"`        // evaluated relative to the record container
	Extract  string `json:"extract"`         // "text" or "attr"
	Attr     string `json:"attr,omitempty"`  // used when Extract == "attr"
	Column   string `json:"column"`          // output column name
	Match    string `json:"match,omitempty"` // optional regex filter (applies to extracted value)
	All      bool   `json:"all,omitempty"`   // optional: join all matches
}

// MappingFile describes the mappings.json file.
type MappingFile struct {
	RecordSelector string    `json:"record_selector"`
	Separator      string    `json:"separator,omitempty"` // joins All matches; default ", "
	Mappings       []Mapping `json:"mappings"`
}
