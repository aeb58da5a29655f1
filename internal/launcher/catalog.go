// Package launcher holds the list of games shown on the launcher screen.
package launcher

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/rocketscienceinc/gamelauncher/internal/apperror"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

const (
	GameTicTacToe = "tictactoe"
	GameHanoi     = "hanoi"
)

var ErrGameNotFound = errors.New("game not found")

//go:embed catalog.hcl
var defaultCatalog []byte

type catalogFile struct {
	Games []gameBlock `hcl:"game,block"`
}

type gameBlock struct {
	Name        string `hcl:"name,label"`
	Title       string `hcl:"title"`
	Description string `hcl:"description,optional"`
	Art         string `hcl:"art,optional"`
	Playable    bool   `hcl:"playable,optional"`
}

// Catalog - ordered list of launcher entries.
type Catalog struct {
	games []entity.GameItem
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, "catalog.hcl")
}

// Load reads a catalog file; an empty or missing path falls back to the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return Parse(src, path)
}

func Parse(src []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse catalog: %s", diags.Error())
	}

	var content catalogFile
	if diags = gohcl.DecodeBody(file.Body, nil, &content); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode catalog: %s", diags.Error())
	}

	catalog := &Catalog{games: make([]entity.GameItem, 0, len(content.Games))}
	seen := make(map[string]bool, len(content.Games))

	for _, block := range content.Games {
		if seen[block.Name] {
			return nil, fmt.Errorf("duplicate game %q in catalog", block.Name)
		}

		seen[block.Name] = true

		catalog.games = append(catalog.games, entity.GameItem{
			Name:        block.Name,
			Title:       block.Title,
			Description: block.Description,
			Art:         block.Art,
			Playable:    block.Playable,
		})
	}

	return catalog, nil
}

// Games returns the entries in declaration order.
func (that *Catalog) Games() []entity.GameItem {
	games := make([]entity.GameItem, len(that.games))
	copy(games, that.games)

	return games
}

func (that *Catalog) Find(name string) (entity.GameItem, error) {
	for _, game := range that.games {
		if game.Name == name {
			return game, nil
		}
	}

	return entity.GameItem{}, fmt.Errorf("%w: %s", ErrGameNotFound, name)
}

// Launch resolves a game that can actually be played.
func (that *Catalog) Launch(name string) (entity.GameItem, error) {
	game, err := that.Find(name)
	if err != nil {
		return entity.GameItem{}, err
	}

	if !game.Playable {
		return entity.GameItem{}, fmt.Errorf("%w: %s", apperror.ErrGameNotAvailable, name)
	}

	return game, nil
}
