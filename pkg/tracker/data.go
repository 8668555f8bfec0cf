package tracker

import (
	"github.com/google/uuid"
)

// Result values for a match.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

// Turn order values for a match.
const (
	TurnFirst  = "first"
	TurnSecond = "second"
)

// Initiative method and coin values.
const (
	InitiativeCoin = "coin"
	CoinHeads      = "heads"
	CoinTails      = "tails"
)

// Period is an optional time window attached to a project. Instants are
// RFC3339 strings; either side may be empty for an open-ended window.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Project is a named, time-bounded grouping of matches. Matches reference
// it by id but survive its deletion.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Period      *Period   `json:"period,omitempty"`
	Archived    bool      `json:"archived"`
	CreatedAt   float64   `json:"createdAt"`
	UpdatedAt   float64   `json:"updatedAt"`
}

// Deck is the user's own reusable deck. Matches snapshot its name at write
// time, so renaming or deleting a deck never rewrites history.
type Deck struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	Favorite  bool      `json:"favorite"`
	Note      string    `json:"note,omitempty"`
	CreatedAt float64   `json:"createdAt"`
	UpdatedAt float64   `json:"updatedAt"`
}

// Tag is a reusable label attachable to matches. Name uniqueness is a
// caller-level convention, not a storage constraint.
type Tag struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   float64   `json:"createdAt"`
	UpdatedAt   float64   `json:"updatedAt"`
}

// TagRef is one entry of a match's ordered tag list. TagID goes nil when
// the referenced tag entity is deleted; TagName is the snapshot taken at
// write time and never changes afterwards.
type TagRef struct {
	TagID   *uuid.UUID `json:"tagId"`
	TagName string     `json:"tagName"`
}

// Initiative records how turn order was decided.
type Initiative struct {
	Method string `json:"method"`
	Value  string `json:"value,omitempty"`
}

// Match is one recorded game. MyDeckName and OpDeckName are immutable
// snapshots, not live joins. TagsFlat is derived from Tags by
// FlatTagNames and kept consistent by every write path.
type Match struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"projectId"`
	PlayedAt   string     `json:"playedAt"`
	Result     string     `json:"result"`
	TurnOrder  string     `json:"turnOrder"`
	Initiative Initiative `json:"initiative"`
	Rating     *float64   `json:"rate,omitempty"`
	MyDeckID   *uuid.UUID `json:"myDeckId"`
	MyDeckName string     `json:"myDeckName"`
	OpDeckName string     `json:"opDeckName"`
	Tags       []TagRef   `json:"tags,omitempty"`
	TagsFlat   []string   `json:"tags_flat"`
	Note       string     `json:"note,omitempty"`
	Deleted    bool       `json:"deleted"`
	CreatedAt  float64    `json:"createdAt"`
	UpdatedAt  float64    `json:"updatedAt"`
}
