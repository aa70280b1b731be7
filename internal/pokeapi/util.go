package pokeapi

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ExtractIDFromURL pulls the numeric resource id out of a PokeAPI
// resource URL ("https://pokeapi.co/api/v2/pokemon/25/" -> 25).
// Returns 0 when the URL doesn't end in a numeric segment.
func ExtractIDFromURL(rawURL string) int {
	trimmed := strings.TrimRight(rawURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0
	}
	id, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// typeColors maps the 18 pokemon types to badge colors.
var typeColors = map[string]string{
	"normal":   "#A8A878",
	"fire":     "#F08030",
	"water":    "#6890F0",
	"electric": "#F8D030",
	"grass":    "#78C850",
	"ice":      "#98D8D8",
	"fighting": "#C03028",
	"poison":   "#A040A0",
	"ground":   "#E0C068",
	"flying":   "#A890F0",
	"psychic":  "#F85888",
	"bug":      "#A8B820",
	"rock":     "#B8A038",
	"ghost":    "#705898",
	"dragon":   "#7038F8",
	"dark":     "#705848",
	"steel":    "#B8B8D0",
	"fairy":    "#EE99AC",
}

// defaultTypeColor is used for unknown type names.
const defaultTypeColor = "#68A090"

// TypeColor returns the badge color for a pokemon type.
// Matching is case-insensitive; unknown types get a neutral default.
func TypeColor(name string) lipgloss.Color {
	if hex, ok := typeColors[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultTypeColor)
}
