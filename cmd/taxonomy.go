package cmd

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the loaded skill taxonomy or resolve a single term",
	Run: func(cmd *cobra.Command, _ []string) {
		showTaxonomy(cmd)
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)

	taxonomyCmd.Flags().String("skill", "", "resolve this term to a canonical skill")
}

func showTaxonomy(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	tax, err := taxonomy.Load(viper.GetString("taxonomy-file"))
	if err != nil {
		logger.Fatal("loading the skill taxonomy", zap.Error(err))
	}

	term := strings.TrimSpace(cmd.Flag("skill").Value.String())
	if term != "" {
		id, ok := tax.Resolve(term)
		if !ok {
			logger.Fatal("unknown skill", zap.String("term", term))
		}
		skill, _ := tax.Skill(id)
		fmt.Printf("%s -> %s (category: %s, aliases: %s)\n", term, skill.Name, skill.Category, strings.Join(skill.Aliases, ", "))
		return
	}

	categories := tax.Categories()
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Printf("%d skills in %d categories\n", tax.Len(), len(names))
	for _, name := range names {
		fmt.Printf("%s: %s\n", name, strings.Join(categories[name], ", "))
	}
}
