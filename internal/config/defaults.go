package config

const (
	defaultLogDir          = "~/.local/share/avifsweep/logs"
	defaultMagickBinary    = "magick"
	defaultQuality         = 90
	defaultHEICCompression = 10
	defaultExifToolBinary  = "exiftool"
	defaultWorkers         = 4
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Conversion: Conversion{
			Binary:          defaultMagickBinary,
			Quality:         defaultQuality,
			HEICCompression: defaultHEICCompression,
		},
		Metadata: Metadata{
			Binary: defaultExifToolBinary,
		},
		Workflow: Workflow{
			Workers: defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
