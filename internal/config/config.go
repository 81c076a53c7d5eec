package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonclassgen/internal/errors"
)

// Supported output languages.
const (
	LanguageCSharp     = "csharp"
	LanguageGo         = "go"
	LanguageJSONSchema = "jsonschema"
)

// Languages lists every value accepted by the language setting.
var Languages = []string{LanguageCSharp, LanguageGo, LanguageJSONSchema}

// Attribute libraries the C# writer can target.
const (
	AttributesNewtonsoft     = "newtonsoft"
	AttributesSystemTextJSON = "system_text_json"
)

// AttributeLibraries lists every value accepted by writer.attribute_library.
var AttributeLibraries = []string{AttributesNewtonsoft, AttributesSystemTextJSON}

// Config represents the complete configuration for jsonclassgen
type Config struct {
	Language  string       `yaml:"language"`
	MainClass string       `yaml:"main_class"`
	Namespace string       `yaml:"namespace"`
	Package   string       `yaml:"package"`
	Writer    WriterConfig `yaml:"writer"`
	Types     TypesConfig  `yaml:"types"`
	Naming    NamingConfig `yaml:"naming"`
	Input     InputConfig  `yaml:"input"`
	Output    OutputConfig `yaml:"output"`
	Log       LogConfig    `yaml:"log"`
}

// WriterConfig holds the options understood by every code writer.
type WriterConfig struct {
	UseProperties           bool `yaml:"use_properties"`
	UsePascalCase           bool `yaml:"use_pascal_case"`
	UseNestedClasses        bool `yaml:"use_nested_classes"`
	ArraysAsLists           bool `yaml:"arrays_as_lists"`
	ExplicitDeserialization bool `yaml:"explicit_deserialization"`
	InternalVisibility      bool `yaml:"internal_visibility"`
	ImmutableClasses        bool `yaml:"immutable_classes"`
	ExamplesInDocumentation bool `yaml:"examples_in_documentation"`

	// AttributeLibrary selects the C# serializer attributes are written for.
	AttributeLibrary string `yaml:"attribute_library"`
	// AlwaysAttributes writes a mapping attribute on every C# member, not
	// only where the member name differs from the key.
	AlwaysAttributes bool `yaml:"always_attributes"`
	// ObfuscationAttributes excludes generated C# classes from renaming by
	// obfuscators.
	ObfuscationAttributes bool `yaml:"obfuscation_attributes"`
}

// TypesConfig controls type inference and mapping
type TypesConfig struct {
	DetectDates bool `yaml:"detect_dates"`
	// DictionaryKeys are patterns matched against JSON keys; objects stored
	// under a matching key are inferred as dictionaries.
	DictionaryKeys []string `yaml:"dictionary_keys"`
	// StrictObjects forbids dictionary inference.
	StrictObjects bool          `yaml:"strict_objects"`
	Mappings      []TypeMapping `yaml:"mappings"`

	dictionaryRegexes []*regexp.Regexp
}

// TypeMapping defines a pattern-based type mapping. Type is written verbatim
// in the target language.
type TypeMapping struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
	Import  string `yaml:"import,omitempty"`
	Comment string `yaml:"comment,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// NamingConfig controls member and class naming
type NamingConfig struct {
	PrefixParentNames     bool              `yaml:"prefix_parent_names"`
	SingularizeArrayNames bool              `yaml:"singularize_array_names"`
	FieldMappings         map[string]string `yaml:"field_mappings"`
}

// InputConfig controls how input documents become samples.
type InputConfig struct {
	// Batch accepts several concatenated JSON documents per input.
	Batch bool `yaml:"batch"`
	// Separate gives every input file its own root class.
	Separate bool `yaml:"separate"`
}

// OutputConfig controls output generation options
type OutputConfig struct {
	MaxExamples int    `yaml:"max_examples"`
	Format      bool   `yaml:"format"`
	FileHeader  string `yaml:"file_header"`
}

// LogConfig configures diagnostics written by the CLI.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Language:  LanguageCSharp,
		MainClass: "Root",
		Namespace: "Generated",
		Package:   "main",
		Writer: WriterConfig{
			UseProperties:    true,
			UsePascalCase:    true,
			ArraysAsLists:    true,
			AttributeLibrary: AttributesNewtonsoft,
		},
		Types: TypesConfig{
			DetectDates:    true,
			DictionaryKeys: []string{},
			Mappings:       []TypeMapping{},
		},
		Naming: NamingConfig{
			SingularizeArrayNames: true,
			FieldMappings:         make(map[string]string),
		},
		Output: OutputConfig{
			MaxExamples: 3,
			Format:      true,
		},
		Log: LogConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to read config file '%s'", path), err)
	}

	// Start with defaults
	cfg := NewConfig()

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse config file '%s'", path), err)
	}

	// Compile regex patterns
	if err := cfg.compilePatterns(); err != nil {
		return nil, errors.NewConfigError("failed to compile patterns", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonclassgen.yml", ".jsonclassgen.yaml", "jsonclassgen.yml", "jsonclassgen.yaml"}

	// Start from current directory
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	// Compile type mapping patterns
	for i := range c.Types.Mappings {
		mapping := &c.Types.Mappings[i]
		regex, err := regexp.Compile(mapping.Pattern)
		if err != nil {
			return fmt.Errorf("invalid type mapping pattern '%s': %w", mapping.Pattern, err)
		}
		mapping.regex = regex
	}

	c.Types.dictionaryRegexes = c.Types.dictionaryRegexes[:0]
	for _, pattern := range c.Types.DictionaryKeys {
		regex, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid dictionary key pattern '%s': %w", pattern, err)
		}
		c.Types.dictionaryRegexes = append(c.Types.dictionaryRegexes, regex)
	}

	return nil
}

// Validate reports contradictory or unusable settings. It must be called
// before any output is produced.
func (c *Config) Validate() error {
	if !contains(Languages, c.Language) {
		return errors.NewConfigError(
			fmt.Sprintf("unknown language '%s' (expected one of %s)", c.Language, strings.Join(Languages, ", ")),
			errors.ErrUnknownLanguage,
		)
	}
	if c.Writer.AttributeLibrary != "" && !contains(AttributeLibraries, c.Writer.AttributeLibrary) {
		return errors.NewConfigError(
			fmt.Sprintf("unknown attribute library '%s' (expected one of %s)",
				c.Writer.AttributeLibrary, strings.Join(AttributeLibraries, ", ")),
			errors.ErrConflictingOptions,
		)
	}
	if c.Types.StrictObjects && len(c.Types.DictionaryKeys) > 0 {
		return errors.NewConfigError(
			"types.strict_objects cannot be combined with types.dictionary_keys",
			errors.ErrConflictingOptions,
		)
	}
	if strcase.ToCamel(c.MainClass) == "" {
		return errors.NewConfigError(
			fmt.Sprintf("main class name '%s' is not a usable identifier", c.MainClass),
			errors.ErrConflictingOptions,
		)
	}
	if c.Output.MaxExamples < 0 {
		return errors.NewConfigError("output.max_examples must not be negative", errors.ErrConflictingOptions)
	}
	if err := c.compilePatterns(); err != nil {
		return errors.NewConfigError("failed to compile patterns", err)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

// MatchesField checks if this type mapping matches the given field name
func (tm *TypeMapping) MatchesField(fieldName string) bool {
	if tm.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(tm.Pattern)
		if err != nil {
			return false
		}
		tm.regex = regex
	}
	return tm.regex.MatchString(fieldName)
}

// FindTypeMapping finds the first type mapping that matches the field name
func (c *Config) FindTypeMapping(fieldName string) (TypeMapping, bool) {
	for i := range c.Types.Mappings {
		if c.Types.Mappings[i].MatchesField(fieldName) {
			return c.Types.Mappings[i], true
		}
	}
	return TypeMapping{}, false
}

// IsDictionaryKey reports whether objects stored under key should be
// inferred as dictionaries.
func (c *Config) IsDictionaryKey(key string) bool {
	if c.Types.StrictObjects {
		return false
	}
	if len(c.Types.dictionaryRegexes) != len(c.Types.DictionaryKeys) {
		if err := c.compilePatterns(); err != nil {
			return false
		}
	}
	for _, regex := range c.Types.dictionaryRegexes {
		if regex.MatchString(key) {
			return true
		}
	}
	return false
}

// Overrides carries command-line values. Nil pointers and empty strings
// leave the file value in place.
type Overrides struct {
	Language  string
	MainClass string
	Namespace string
	Package   string
	LogLevel  string
	LogFile   string

	FileHeader       string
	AttributeLibrary string

	UseProperties           *bool
	UsePascalCase           *bool
	UseNestedClasses        *bool
	ArraysAsLists           *bool
	ExplicitDeserialization *bool
	InternalVisibility      *bool
	ImmutableClasses        *bool
	ExamplesInDocumentation *bool
	AlwaysAttributes        *bool
	ObfuscationAttributes   *bool
	DetectDates             *bool
	Batch                   *bool
	Separate                *bool
	Format                  *bool
}

// Apply merges non-empty overrides into c.
func (o Overrides) Apply(c *Config) {
	setString(&c.Language, o.Language)
	setString(&c.MainClass, o.MainClass)
	setString(&c.Namespace, o.Namespace)
	setString(&c.Package, o.Package)
	setString(&c.Log.Level, o.LogLevel)
	setString(&c.Log.File, o.LogFile)
	setString(&c.Output.FileHeader, o.FileHeader)
	setString(&c.Writer.AttributeLibrary, o.AttributeLibrary)

	setBool(&c.Writer.UseProperties, o.UseProperties)
	setBool(&c.Writer.UsePascalCase, o.UsePascalCase)
	setBool(&c.Writer.UseNestedClasses, o.UseNestedClasses)
	setBool(&c.Writer.ArraysAsLists, o.ArraysAsLists)
	setBool(&c.Writer.ExplicitDeserialization, o.ExplicitDeserialization)
	setBool(&c.Writer.InternalVisibility, o.InternalVisibility)
	setBool(&c.Writer.ImmutableClasses, o.ImmutableClasses)
	setBool(&c.Writer.ExamplesInDocumentation, o.ExamplesInDocumentation)
	setBool(&c.Writer.AlwaysAttributes, o.AlwaysAttributes)
	setBool(&c.Writer.ObfuscationAttributes, o.ObfuscationAttributes)
	setBool(&c.Types.DetectDates, o.DetectDates)
	setBool(&c.Input.Batch, o.Batch)
	setBool(&c.Input.Separate, o.Separate)
	setBool(&c.Output.Format, o.Format)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// LoadConfigWithCLI loads the config file (if any), applies command-line
// overrides and validates the result.
func LoadConfigWithCLI(configPath string, overrides Overrides) (*Config, error) {
	// Start with defaults
	cfg := NewConfig()

	// Load config file if provided
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
