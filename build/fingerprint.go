package build

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

type fileDigest struct {
	Path string   `msgpack:"path"`
	Sum  [32]byte `msgpack:"sum"`
}

type manifest struct {
	Files []fileDigest `msgpack:"files"`
}

// fingerprint digests the generated artifacts. Identical output gives an
// identical fingerprint regardless of artifact order.
func fingerprint(artifacts []artifact) (string, error) {
	m := manifest{Files: make([]fileDigest, 0, len(artifacts))}
	for _, a := range artifacts {
		m.Files = append(m.Files, fileDigest{Path: a.path, Sum: sha256.Sum256(a.data)})
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })

	data, err := msgpack.Marshal(&m)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16], nil
}
