package models

// Category is the top-level classification of an image. It decides the
// storage subpath and which validation rules apply.
type Category string

const (
	CategoryProfile  Category = "profile"
	CategoryProjects Category = "projects"
)

// KnownCategories lists every category the server accepts uploads for.
var KnownCategories = []Category{CategoryProfile, CategoryProjects}

// ParseCategory converts a raw form/query value into a Category as is. It
// does not trim or lowercase, and unknown values are kept unchanged; check
// IsKnown before trusting the result.
func ParseCategory(raw string) Category {
	return Category(raw)
}

// IsKnown reports whether c is profile or projects.
func (c Category) IsKnown() bool {
	switch c {
	case CategoryProfile, CategoryProjects:
		return true
	default:
		return false
	}
}

func (c Category) String() string { return string(c) }

// ImageDescriptor is one listing entry. Type is nil when the image lives
// directly under its category directory.
type ImageDescriptor struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Category Category `json:"category"`
	Type     *string  `json:"type"`
}

// ImageURL builds the public path of a stored image. An empty type drops
// its segment: /images/profile/a.png rather than /images/profile//a.png.
func ImageURL(category Category, typ, name string) string {
	if typ == "" {
		return "/images/" + string(category) + "/" + name
	}
	return "/images/" + string(category) + "/" + typ + "/" + name
}

// NewImageDescriptor builds the listing entry for a stored file.
func NewImageDescriptor(category Category, typ, name string) ImageDescriptor {
	d := ImageDescriptor{
		Name:     name,
		URL:      ImageURL(category, typ, name),
		Category: category,
	}
	if typ != "" {
		t := typ
		d.Type = &t
	}
	return d
}
