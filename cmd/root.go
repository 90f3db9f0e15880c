package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "face-registry",
	Short: "Enroll people by photo and recognize them later",
	Long: `Face Registry keeps a gallery of enrolled people, each with a reference
photo. New enrollments are rejected when the face is already registered, and
probe photos are matched against the gallery by face vector distance.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides FACE_REGISTRY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	if configFile != "" {
		os.Setenv("FACE_REGISTRY_CONFIG", configFile)
	}
	if logLevel != "" {
		os.Setenv("LOG_LEVEL", logLevel)
	}
}
