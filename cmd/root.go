package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-screener/internal/batch"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/filtering"
	"github.com/spigell/resume-screener/internal/input"
	"github.com/spigell/resume-screener/internal/jobreq"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/tagger"
)

const (
	app = "resume-screener"
)

type Config struct {
	TaxonomyFile string           `mapstructure:"taxonomy-file"`
	MetricsFile  string           `mapstructure:"metrics-file"`
	JD           JDConfig         `mapstructure:"jd"`
	Scoring      ScoringConfig    `mapstructure:"scoring"`
	Extraction   ExtractionConfig `mapstructure:"extraction"`
	Batch        batch.Options    `mapstructure:"batch"`
	Tagger       tagger.Options   `mapstructure:"tagger"`
	Filters      filtering.Config `mapstructure:"filters"`
	Export       ExportConfig     `mapstructure:"export"`
}

type JDConfig struct {
	Text      string `mapstructure:"text"`
	File      string `mapstructure:"file"`
	MaxLength int    `mapstructure:"max-length"`
}

type ScoringConfig struct {
	scoring.Config  `mapstructure:",squash"`
	RequiredWeight  float64 `mapstructure:"required-weight"`
	PreferredWeight float64 `mapstructure:"preferred-weight"`
}

type ExtractionConfig struct {
	extract.Options `mapstructure:",squash"`
	MaxFileSize     int64 `mapstructure:"max-file-size"`
}

type ExportConfig struct {
	CSV  string `mapstructure:"csv"`
	XLSX string `mapstructure:"xlsx"`
	JSON string `mapstructure:"json"`
}

// Policy returns the job description parsing policy.
func (c *Config) Policy() jobreq.Policy {
	return jobreq.Policy{
		RequiredWeight:  c.Scoring.RequiredWeight,
		PreferredWeight: c.Scoring.PreferredWeight,
		MaxLength:       c.JD.MaxLength,
	}
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-screener ranks resumes against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("taxonomy-file", "RESUME_SCREENER_TAXONOMY"); err != nil {
		log.Fatalf("binding RESUME_SCREENER_TAXONOMY environment variable: %v", err)
	}

	viper.SetDefault("jd.max-length", jobreq.DefaultMaxLength)
	viper.SetDefault("scoring.fit-threshold", scoring.DefaultFitThreshold)
	viper.SetDefault("scoring.experience-penalty", scoring.DefaultExperiencePenalty)
	viper.SetDefault("scoring.required-weight", jobreq.DefaultRequiredWeight)
	viper.SetDefault("scoring.preferred-weight", jobreq.DefaultPreferredWeight)
	viper.SetDefault("extraction.min-text-length", extract.DefaultMinTextLength)
	viper.SetDefault("extraction.max-file-size", input.DefaultMaxFileSize)
	viper.SetDefault("batch.timeout", batch.DefaultTimeout)
	viper.SetDefault("tagger.max-edit-distance", tagger.DefaultMaxEditDistance)
	viper.SetDefault("tagger.fuzzy-min-length", tagger.DefaultFuzzyMinLength)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("taxonomy", "", "a skill taxonomy file (default is the built-in taxonomy)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("taxonomy-file", rootCmd.PersistentFlags().Lookup("taxonomy"))
}

func initConfig() {
	// Only commands that load the taxonomy need the config.
	if runCmd.CalledAs() == "" && taxonomyCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults are enough when there is no config file, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
