package web

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed static/*.html
var embeddedPages embed.FS

const (
	helloPage    = "hello.html"
	notFoundPage = "404.html"
)

// Pages holds the two static documents the server answers with
type Pages struct {
	Hello    []byte
	NotFound []byte
}

// LoadPages reads hello.html and 404.html from dir.
// An empty dir selects the pages compiled into the binary.
func LoadPages(dir string) (*Pages, error) {
	read := func(name string) ([]byte, error) {
		if dir == "" {
			return embeddedPages.ReadFile("static/" + name)
		}
		return os.ReadFile(filepath.Join(dir, name))
	}

	hello, err := read(helloPage)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", helloPage, err)
	}
	notFound, err := read(notFoundPage)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", notFoundPage, err)
	}
	return &Pages{Hello: hello, NotFound: notFound}, nil
}
