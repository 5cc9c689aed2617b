package model

import "strings"

// TaskType is a category tasks are labelled and colored with.
type TaskType struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Valid reports whether every field of the type is present.
func (t TaskType) Valid() bool {
	return strings.TrimSpace(t.ID) != "" && strings.TrimSpace(t.Name) != "" && strings.TrimSpace(t.Color) != ""
}

// Color is a named palette entry.
type Color struct {
	Name string
	Hex  string
}

// Palette lists the colors a type may be given.
var Palette = []Color{
	{Name: "Azure", Hex: "#3A6EF6"},
	{Name: "Sea", Hex: "#3D93A3"},
	{Name: "Apricot", Hex: "#EE9A53"},
	{Name: "Lavender", Hex: "#8A78C9"},
	{Name: "Rosewood", Hex: "#B56A6A"},
}

// PaletteColor looks a color up by hex value or name, case-insensitively.
func PaletteColor(v string) (Color, bool) {
	v = strings.TrimSpace(v)
	for _, c := range Palette {
		if strings.EqualFold(c.Hex, v) || strings.EqualFold(c.Name, v) {
			return c, true
		}
	}
	return Color{}, false
}

// DefaultTypes is the registry a fresh install starts with.
func DefaultTypes() []TaskType {
	return []TaskType{
		{ID: "personal", Name: "Personal", Color: Palette[0].Hex},
		{ID: "work", Name: "Work", Color: Palette[1].Hex},
		{ID: "errands", Name: "Errands", Color: Palette[2].Hex},
	}
}
