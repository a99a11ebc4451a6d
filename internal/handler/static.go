package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rivlclub/rivl/internal/middleware"
	"github.com/rivlclub/rivl/internal/model"
)

// noListingFS はindex.htmlを持たないディレクトリを存在しないものとして扱う。
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.IsDir() {
		return f, nil
	}

	index, err := n.fs.Open(path.Join(name, "index.html"))
	if err != nil {
		f.Close()
		return nil, fs.ErrNotExist
	}
	index.Close()
	return f, nil
}

// NewStaticHandler はdirの静的ファイルを配信するハンドラーを返す。
// SPAのフォールバックはせず、存在しないパスは404になる。
// /api/ 配下の未定義パスにはJSONで404を返す。
func NewStaticHandler(dir string) http.Handler {
	files := http.FileServer(noListingFS{fs: http.Dir(dir)})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
			NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// NotFound は統一フォーマットで404を返す。
func NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError())
}
