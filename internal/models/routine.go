package models

// RoutineRow is one content row from the external sheet. Weight is an
// optional column; rows without it are picked with weight 1.
type RoutineRow struct {
	Title       string `msgpack:"title" json:"title"`
	Description string `msgpack:"description" json:"description"`
	Weight      int    `msgpack:"weight" json:"weight"`
}

// Embed is a gateway-neutral rich message.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}
