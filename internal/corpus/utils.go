package corpus

import (
	"github.com/dtnitsch/essay-ingest/pkg/storage"
)

func fileExists(path string) bool {
	return (&storage.Storage{}).HasFile(path)
}
