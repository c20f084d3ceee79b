package main

type Config struct {
	BadgerFilepath string   `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string   `env:"BLUGE_FILEPATH,required=true"`
	CensoredWords  []string `env:"CENSORED_WORDS"`
	// Parsed as a string: go-env reads rune fields as numbers
	ModerationCharReplacement string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	LogLevel                  string `env:"LOG_LEVEL,required=true"`
	Host                      string `env:"HOST,default=localhost"`
	Port                      int    `env:"PORT,default=8080"`
}

// ReplacementRune returns the first rune of the configured mask
// character, falling back to '*' on an empty value.
func (c Config) ReplacementRune() rune {
	for _, r := range c.ModerationCharReplacement {
		return r
	}
	return '*'
}
