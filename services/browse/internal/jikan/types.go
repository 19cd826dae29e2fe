package jikan

import (
	"encoding/json"
	"errors"
	"strings"
)

// Response is an upstream body passed through unchanged. Data and Pagination
// are decoded for Go callers; MarshalJSON re-emits the upstream bytes.
type Response struct {
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination,omitempty"`

	raw []byte
}

// Pagination is the list-endpoint page block.
type Pagination struct {
	CurrentPage     int  `json:"current_page"`
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	Items           struct {
		Count   int `json:"count"`
		Total   int `json:"total"`
		PerPage int `json:"per_page"`
	} `json:"items"`
}

// LastPage is the last page upstream reports. No ceiling is applied here.
func (p *Pagination) LastPage() int {
	if p == nil {
		return 0
	}
	return p.LastVisiblePage
}

func (p *Pagination) TotalItems() int {
	if p == nil {
		return 0
	}
	return p.Items.Total
}

var errInvalidJSON = errors.New("jikan: response body is not valid JSON")

// DecodeResponse keeps the raw bytes of any valid JSON body for pass-through
// encoding. The envelope fields are best effort: an unexpected shape leaves
// Data or Pagination empty instead of failing the call.
func DecodeResponse(b []byte) (*Response, error) {
	if !json.Valid(b) {
		return nil, errInvalidJSON
	}
	var env struct {
		Data       json.RawMessage `json:"data"`
		Pagination json.RawMessage `json:"pagination"`
	}
	_ = json.Unmarshal(b, &env)

	out := &Response{Data: env.Data, raw: b}
	if len(env.Pagination) > 0 && string(env.Pagination) != "null" {
		var p Pagination
		if err := json.Unmarshal(env.Pagination, &p); err == nil {
			out.Pagination = &p
		}
	}
	return out, nil
}

func (r *Response) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	type plain Response
	return json.Marshal((*plain)(r))
}

var errNoData = errors.New("jikan: response has no data")

func (r *Response) decodeData(dst any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return errNoData
	}
	return json.Unmarshal(r.Data, dst)
}

// AnimeList decodes data as a list of anime (top, seasons, search).
func (r *Response) AnimeList() ([]Anime, error) {
	var out []Anime
	if err := r.decodeData(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Anime decodes data as a single anime record (detail).
func (r *Response) Anime() (*Anime, error) {
	var out Anime
	if err := r.decodeData(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Response) Characters() ([]CharacterRole, error) {
	var out []CharacterRole
	if err := r.decodeData(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Response) Recommendations() ([]Recommendation, error) {
	var out []Recommendation
	if err := r.decodeData(&out); err != nil {
		return nil, err
	}
	return out, nil
}

type Images struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

// BestURL prefers the large image.
func (i Images) BestURL() string {
	if u := strings.TrimSpace(i.JPG.LargeImageURL); u != "" {
		return u
	}
	return strings.TrimSpace(i.JPG.ImageURL)
}

type Named struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

// Anime is the shared data block of list and detail endpoints.
type Anime struct {
	MalID         int    `json:"mal_id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	TitleEnglish  string `json:"title_english"`
	TitleJapanese string `json:"title_japanese"`
	Images        Images `json:"images"`
	Trailer       struct {
		EmbedURL string `json:"embed_url"`
	} `json:"trailer"`
	Type       string  `json:"type"`
	Source     string  `json:"source"`
	Episodes   int     `json:"episodes"`
	Status     string  `json:"status"`
	Airing     bool    `json:"airing"`
	Duration   string  `json:"duration"`
	Rating     string  `json:"rating"`
	Score      float64 `json:"score"`
	ScoredBy   int     `json:"scored_by"`
	Rank       int     `json:"rank"`
	Popularity int     `json:"popularity"`
	Synopsis   string  `json:"synopsis"`
	Season     string  `json:"season"`
	Year       int     `json:"year"`
	Genres     []Named `json:"genres"`
	Studios    []Named `json:"studios"`
}

// BestTitle prefers the English title, then the default, then Japanese.
func (a Anime) BestTitle() string {
	if t := strings.TrimSpace(a.TitleEnglish); t != "" {
		return t
	}
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return strings.TrimSpace(a.TitleJapanese)
}

// GenreNames returns trimmed, non-empty genre names.
func (a Anime) GenreNames() []string {
	out := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

type CharacterRole struct {
	Character struct {
		MalID  int    `json:"mal_id"`
		Name   string `json:"name"`
		Images Images `json:"images"`
	} `json:"character"`
	Role        string `json:"role"`
	VoiceActors []struct {
		Person struct {
			MalID int    `json:"mal_id"`
			Name  string `json:"name"`
		} `json:"person"`
		Language string `json:"language"`
	} `json:"voice_actors"`
}

// JapaneseVoiceActor returns the first Japanese voice actor's name, if any.
func (c CharacterRole) JapaneseVoiceActor() string {
	for _, va := range c.VoiceActors {
		if strings.EqualFold(va.Language, "Japanese") {
			return va.Person.Name
		}
	}
	return ""
}

type Recommendation struct {
	Entry struct {
		MalID  int    `json:"mal_id"`
		Title  string `json:"title"`
		Images Images `json:"images"`
	} `json:"entry"`
	Votes int `json:"votes"`
}
