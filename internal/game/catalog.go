// Package game はゲームカタログの提供と試合結果の受け付けを行う。
package game

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rivlclub/rivl/internal/model"
	"github.com/rivlclub/rivl/internal/security"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type catalogDocument struct {
	Games []model.GameDescriptor `yaml:"games"`
}

// Catalog は起動時に読み込む読み取り専用のゲーム一覧。
// 並び順はドキュメントの記載順で固定される。
type Catalog struct {
	games []model.GameDescriptor
	byID  map[string]int
}

// LoadCatalog はpathのYAMLからカタログを読み込む。pathが空なら組み込みのカタログを使う。
func LoadCatalog(path string, sanitizer security.TextSanitizer) (*Catalog, error) {
	data := embeddedCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read game catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data, sanitizer)
}

// ParseCatalog はYAMLドキュメントを検証してカタログを構築する。
// idの欠落・重複、名前の欠落、安全でないリンクはエラーになる。
func ParseCatalog(data []byte, sanitizer security.TextSanitizer) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc catalogDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse game catalog: %w", err)
	}

	c := &Catalog{
		games: make([]model.GameDescriptor, 0, len(doc.Games)),
		byID:  make(map[string]int, len(doc.Games)),
	}

	for i, g := range doc.Games {
		if g.ID == "" {
			return nil, fmt.Errorf("game catalog entry %d: id is empty", i)
		}
		if _, dup := c.byID[g.ID]; dup {
			return nil, fmt.Errorf("game catalog entry %d: duplicate id %q", i, g.ID)
		}

		entry := model.GameDescriptor{
			ID:          g.ID,
			Name:        sanitizer.SanitizeText(g.Name),
			Description: sanitizer.SanitizeText(g.Description),
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("game %q: name is empty", g.ID)
		}

		var ok bool
		if entry.Image, ok = sanitizer.SanitizeLink(g.Image); !ok {
			return nil, fmt.Errorf("game %q: unsafe image link %q", g.ID, g.Image)
		}
		if entry.Page, ok = sanitizer.SanitizeLink(g.Page); !ok {
			return nil, fmt.Errorf("game %q: unsafe page link %q", g.ID, g.Page)
		}

		c.byID[g.ID] = len(c.games)
		c.games = append(c.games, entry)
	}

	return c, nil
}

// List はカタログのコピーを返す。
func (c *Catalog) List() []model.GameDescriptor {
	out := make([]model.GameDescriptor, len(c.games))
	copy(out, c.games)
	return out
}

// Lookup はidに一致するゲームを返す。
func (c *Catalog) Lookup(id string) (model.GameDescriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.GameDescriptor{}, false
	}
	return c.games[i], true
}

// Len はゲーム数を返す。
func (c *Catalog) Len() int {
	return len(c.games)
}
