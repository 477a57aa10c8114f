package anchor

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/sgxsync/internal/contracts"
)

type anchorFile struct {
	Anchors []Anchor `yaml:"anchors"`
}

// LoadFile reads seed anchors from YAML.
// KnownFields(true): 알 수 없는 필드 발견 시 에러 반환
func LoadFile(path string) ([]Anchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f anchorFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode anchors file %s: %w", path, err)
	}

	for _, a := range f.Anchors {
		if _, err := contracts.ParseSeries(string(a.Series)); err != nil {
			return nil, fmt.Errorf("anchors file %s: %w", path, err)
		}
	}

	return f.Anchors, nil
}
