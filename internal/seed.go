package internal

import (
	_ "embed"
)

//go:embed seed/novel.json
var seedNovel []byte

// SeedNovel returns the bundled default novel document
func SeedNovel() []byte {
	return append([]byte(nil), seedNovel...)
}
