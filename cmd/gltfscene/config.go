package main

import (
	"os"

	"github.com/binzume/gltfscene/converter"
	"gopkg.in/yaml.v2"
)

func loadOptions(path string) (*converter.GLTFToSceneOption, error) {
	options := &converter.GLTFToSceneOption{}
	if path == "" {
		return options, nil
	}
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	err = yaml.NewDecoder(r).Decode(options)
	return options, err
}
