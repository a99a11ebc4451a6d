package client

import (
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/rivlclub/rivl/internal/model"
)

// ErrUnknownGame はカタログに無いゲームを起動しようとした場合に返す。
var ErrUnknownGame = errors.New("client: unknown game")

// ErrNoNavigator はNavigatorが設定されていない場合に返す。
var ErrNoNavigator = errors.New("client: no navigator configured")

// fallbackImage は画像の読み込みに失敗した場合の代替。
const fallbackImage = "https://placehold.co/80x80?text=Game"

var cardTemplate = template.Must(template.New("cards").Parse(
	`{{range .}}<div class="game-card glass" data-id="{{.ID}}">
  <img src="{{.Image}}" alt="{{.Name}}" data-fallback="` + fallbackImage + `">
  <h3>{{.Name}}</h3>
  <p>{{.Description}}</p>
  <a class="btn-primary glass joinBtn" href="{{.Page}}">Gioca</a>
</div>
{{end}}`))

// RenderCatalog はカタログをゲームカードのHTMLとしてwに書き込む。
// サーバーはプレーンテキストを返すため、エスケープはテンプレートに任せる。
func (a *App) RenderCatalog(w io.Writer) error {
	games := a.Games()
	cards := make([]model.GameDescriptor, len(games))
	for i, g := range games {
		cards[i] = model.GameDescriptor{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			Image:       g.Image,
			Page:        g.Page,
		}
		if cards[i].Image == "" {
			cards[i].Image = fallbackImage
		}
	}
	if err := cardTemplate.Execute(w, cards); err != nil {
		return fmt.Errorf("client: render catalog: %w", err)
	}
	return nil
}

// Launch はゲームのページへ遷移する。
func (a *App) Launch(gameID string) error {
	if a.navigator == nil {
		return ErrNoNavigator
	}
	for _, g := range a.Games() {
		if g.ID != gameID {
			continue
		}
		if g.Page == "" {
			return fmt.Errorf("%w: %s has no page", ErrUnknownGame, gameID)
		}
		return a.navigator.Navigate(g.Page)
	}
	return fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
}
