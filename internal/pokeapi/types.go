package pokeapi

// NamedRef is a name plus the resource URL it points at, as returned by
// list endpoints.
type NamedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Page is one page of the paginated catalog listing. Next being empty
// signals the terminal page.
type Page struct {
	Count    int        `json:"count"`
	Next     string     `json:"next"`
	Previous string     `json:"previous"`
	Results  []NamedRef `json:"results"`
}

// HasNext reports whether another page follows this one.
func (p *Page) HasNext() bool {
	return p != nil && p.Next != ""
}

// Sprites holds the artwork URLs we care about.
type Sprites struct {
	FrontDefault string       `json:"front_default"`
	Other        OtherSprites `json:"other"`
}

// OtherSprites nests the alternative artwork sets.
type OtherSprites struct {
	OfficialArtwork ArtworkSprites `json:"official-artwork"`
}

// ArtworkSprites is the official artwork set.
type ArtworkSprites struct {
	FrontDefault string `json:"front_default"`
}

// Image returns the best available artwork URL.
func (s Sprites) Image() string {
	if s.Other.OfficialArtwork.FrontDefault != "" {
		return s.Other.OfficialArtwork.FrontDefault
	}
	return s.FrontDefault
}

// TypeSlot is one entry of a pokemon's ordered type list.
type TypeSlot struct {
	Slot int      `json:"slot"`
	Type NamedRef `json:"type"`
}

// Stat is one base-stat entry.
type Stat struct {
	BaseStat int      `json:"base_stat"`
	Stat     NamedRef `json:"stat"`
}

// Ability is one ability entry.
type Ability struct {
	IsHidden bool     `json:"is_hidden"`
	Ability  NamedRef `json:"ability"`
}

// Pokemon is a full catalog item. Externally owned and read-only: we
// fetch and cache it, never write it.
type Pokemon struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Height    int        `json:"height"`
	Weight    int        `json:"weight"`
	Sprites   Sprites    `json:"sprites"`
	Types     []TypeSlot `json:"types"`
	Stats     []Stat     `json:"stats"`
	Abilities []Ability  `json:"abilities"`
}

// TypeNames returns the pokemon's type names in slot order.
func (p *Pokemon) TypeNames() []string {
	out := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		out = append(out, t.Type.Name)
	}
	return out
}
