package notion

// Page is one database entry. Only the property shapes the feed reads are
// decoded; other property types come back with just Type set.
type Page struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Properties map[string]Property `json:"properties"`
}

type Property struct {
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type"`
	Title    []RichText    `json:"title,omitempty"`
	RichText []RichText    `json:"rich_text,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
	Date     *Date         `json:"date,omitempty"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

type SelectOption struct {
	Name string `json:"name"`
}

type Date struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// Lookup returns the first property present under any of names, in order.
func (p Page) Lookup(names ...string) (Property, bool) {
	for _, name := range names {
		if prop, ok := p.Properties[name]; ok {
			return prop, true
		}
	}
	return Property{}, false
}

// FirstTitle returns the plain text of the first title run.
func (p Property) FirstTitle() string {
	return firstPlain(p.Title)
}

// FirstText returns the plain text of the first rich text run.
func (p Property) FirstText() string {
	return firstPlain(p.RichText)
}

// SelectName returns the selected option name, or "".
func (p Property) SelectName() string {
	if p.Select == nil {
		return ""
	}
	return p.Select.Name
}

// DateStart returns the start of a date property, or "".
func (p Property) DateStart() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Start
}

// RichTextValue is shorthand for the first text run of a named rich text
// property; "" when the property is absent.
func (p Page) RichTextValue(name string) string {
	prop, ok := p.Lookup(name)
	if !ok {
		return ""
	}
	return prop.FirstText()
}

func firstPlain(runs []RichText) string {
	if len(runs) == 0 {
		return ""
	}
	return runs[0].PlainText
}
