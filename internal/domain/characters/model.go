// Package characters es el catálogo de personajes: Rosie libre, el resto detrás de una capability.
package characters

// Character describe un personaje del catálogo.
type Character struct {
	ID    string
	Name  string
	Image string // key de asset

	// Capability requerida; vacío = libre.
	Capability string
}

const (
	DefaultID = "rosie"

	// FieldCharacter guarda la selección en users/{uid}.
	FieldCharacter = "character"
)

var Catalog = []Character{
	{ID: "rosie", Name: "Rosie", Image: "images/rosie.png"},
	{ID: "luna", Name: "Luna", Image: "images/luna.png", Capability: "characters:luna"},
}

// Entry es un personaje visto por un usuario concreto.
type Entry struct {
	Character
	ImageURL string
	Locked   bool
	Selected bool
}

func find(id string) (Character, bool) {
	for _, c := range Catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}
