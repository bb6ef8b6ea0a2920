package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/binzume/gltfscene/converter"
	"github.com/binzume/gltfscene/gltfutil"
	"github.com/binzume/gltfscene/scene"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.glb [output.txt]\n", os.Args[0])
		flag.PrintDefaults()
	}
	config := flag.String("config", "", "options file (.yaml)")
	rot180 := flag.Bool("rot180", false, "rotate 180 degrees around Y")
	splitMR := flag.Bool("splitmr", false, "split metallic-roughness texture channels")
	texLimit := flag.Int("texlimit", 0, "texture resolution limit. 0:unlimited")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)

	confFile := *config
	if confFile == "" {
		confFile = input[0:len(input)-len(filepath.Ext(input))] + ".yaml"
		if _, err := os.Stat(confFile); err != nil {
			confFile = ""
		}
	}
	options, err := loadOptions(confFile)
	if err != nil {
		log.Fatal(err)
	}
	if *rot180 {
		options.Rot180 = true
	}
	if *splitMR {
		options.SplitMetallicRoughness = true
	}
	if *texLimit > 0 {
		options.TextureResolutionLimit = *texLimit
	}

	doc, dir, err := gltfutil.Load(input)
	if err != nil {
		log.Fatal(err)
	}
	s, err := converter.NewGLTFToSceneConverter(options).Convert(doc, dir)
	if err != nil {
		log.Fatal(err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(input)
	}

	var w io.Writer = os.Stdout
	if flag.NArg() > 1 {
		f, err := os.Create(flag.Arg(1))
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		w = f
	}
	scene.Dump(w, s)
}
