package config

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Token   string `toml:"token"`
	Host    string `toml:"host"`
	Port    string `toml:"port"`
	Libonnx string `toml:"libonnx"`

	GeneralThreshold   float32 `toml:"general_threshold"`
	CharacterThreshold float32 `toml:"character_threshold"`
	GeneralMCut        bool    `toml:"general_mcut"`
	CharacterMCut      bool    `toml:"character_mcut"`

	PoolSize int `toml:"pool_size"`

	ModelUrl      string `toml:"model_url"`
	TagsUrl       string `toml:"tags_url"`
	ModelDir      string `toml:"model_dir"`
	ModelTagsName string `toml:"model_tags_name"`
	ModelFileName string `toml:"model_file_name"`
}

var (
	cfg = Config{
		Token:              "",
		Host:               "0.0.0.0",
		Port:               "8000",
		GeneralThreshold:   0.5,
		CharacterThreshold: 0.5,
		GeneralMCut:        false,
		CharacterMCut:      false,
		PoolSize:           1,
		ModelUrl:           "https://huggingface.co/SmilingWolf/wd-swinv2-tagger-v3/resolve/main/model.onnx?download=true",
		TagsUrl:            "https://huggingface.co/SmilingWolf/wd-swinv2-tagger-v3/resolve/main/selected_tags.csv?download=true",
		ModelDir:           "models",
		ModelTagsName:      "selected_tags.csv",
		ModelFileName:      "model.onnx",
	}
	loadOnce sync.Once
)

func C() Config {
	loadOnce.Do(func() {
		if _, err := os.Stat("config.toml"); err == nil {
			data, err := os.ReadFile("config.toml")
			if err != nil {
				panic(err)
			}
			if err := toml.Unmarshal(data, &cfg); err != nil {
				panic(err)
			}
		}
	})
	return cfg
}
