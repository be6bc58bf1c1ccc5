package config

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/kochabx/stepviz/core/tag"
	"github.com/kochabx/stepviz/core/validator"
	"github.com/kochabx/stepviz/errors"
)

// EnvPrefix prefixes environment overrides, e.g. STEPVIZ_SERVER_ADDR.
const EnvPrefix = "STEPVIZ"

// FileLoader loads configuration from file
type FileLoader struct {
	viper    *viper.Viper
	validate validator.Validator
	file     string
}

// NewFileLoader creates a loader for file. A bare name such as
// "stepviz.yaml" is searched for in paths; anything else is read as is.
func NewFileLoader(file string, paths []string, v *viper.Viper, validate validator.Validator) *FileLoader {
	if len(paths) > 0 && filepath.Base(file) == file {
		ext := filepath.Ext(file)
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName(strings.TrimSuffix(file, ext))
		v.SetConfigType(strings.TrimPrefix(ext, "."))
	} else {
		v.SetConfigFile(file)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		validate: validate,
		file:     file,
	}
}

// Load implements Loader interface
func (l *FileLoader) Load(target any) error {
	// Defaults first so keys missing from the file keep them.
	if err := tag.ApplyDefaults(target); err != nil {
		return errors.Wrap(err, errors.UnknownCode, "failed to apply defaults")
	}

	if err := l.viper.ReadInConfig(); err != nil {
		return errors.Wrap(err, errors.CodeNotFound, "config file %s not found", l.file)
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := l.viper.Unmarshal(target, hook); err != nil {
		return errors.Wrap(err, errors.UnknownCode, "config parse error")
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return validator.AsError(err)
		}
	}

	return nil
}

// Watch implements Loader interface
func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})

	l.viper.WatchConfig()
	return nil
}
