package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "promptune",
	Short: "An iterative prompt optimizer for LLM diagnostic classifiers",
	Long: `Promptune refines the instruction prompt driving an LLM diagnostic
classifier. Each iteration it generates a candidate prompt, classifies
every case in the dataset with it, scores agreement against ground
truth, and keeps the best prompt seen so far.

Examples:
  promptune run --inputs data/inputs --ground-truth data/gts
  promptune run --max-iterations 5 --task "Identify the most likely condition"
  promptune score --prompt results/run_20250130_142233/best_prompt.txt
  promptune monitor results/run_20250130_142233`,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.promptune.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".promptune")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PROMPTUNE")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)

	viper.SetDefault("data.inputs_dir", filepath.Join("data", "inputs"))
	viper.SetDefault("data.ground_truth_dir", filepath.Join("data", "gts"))
	viper.SetDefault("data.results_dir", "results")

	viper.SetDefault("optimizer.max_iterations", 10)
	viper.SetDefault("optimizer.task_description",
		"Carefully analyze the diagnostic case data, identify the abnormal findings, and determine the single most likely condition. Consider how the findings relate to each other rather than judging each in isolation.")

	// The generator rewrites prompts and benefits from some variety;
	// the predictor classifies cases and should stay near-deterministic.
	viper.SetDefault("generator.provider", "ollama")
	viper.SetDefault("generator.temperature", 0.7)
	viper.SetDefault("generator.ollama.host", "http://localhost:11434")
	viper.SetDefault("generator.ollama.model", "llama3.2")

	viper.SetDefault("predictor.provider", "ollama")
	viper.SetDefault("predictor.temperature", 0.3)
	viper.SetDefault("predictor.ollama.host", "http://localhost:11434")
	viper.SetDefault("predictor.ollama.model", "llama3.2")

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
