package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-msri/internal/config"
	"gopkg.in/yaml.v2"
)

const (
	configDir        = "./config"
	sampleConfigName = "msri-scenario-config.yaml"
)

func main() {
	cfg := config.DefaultConfig()

	schemaPath := filepath.Join(configDir, config.SchemaName)
	sampleConfigPath := filepath.Join(configDir, sampleConfigName)

	if err := validateSchemaName(config.SchemaName); err != nil {
		log.Fatalf("Invalid schema name: %v", err)
	}

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatalf("Invalid output paths: %v", err)
	}

	if err := generateSchemaFile(cfg, schemaPath); err != nil {
		log.Fatalf("Failed to generate schema: %v", err)
	}

	if err := generateSampleConfig(cfg, sampleConfigPath, config.SchemaName); err != nil {
		log.Fatalf("Failed to generate sample config: %v", err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
}

// generateSchemaFile writes the JSON schema of cfg to schemaPath.
func generateSchemaFile(cfg config.ScenarioConfig, schemaPath string) error {
	schemaJSON, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes cfg as YAML unless samplePath already exists.
func generateSampleConfig(cfg config.ScenarioConfig, samplePath string, schemaName string) error {
	if _, err := os.Stat(samplePath); !os.IsNotExist(err) {
		return nil
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(samplePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(samplePath, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(schemaName string) error {
	if schemaName == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(schemaName, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", schemaName)
	}

	return nil
}

// getSchemaReference returns the yaml-language-server header for schemaName.
func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}
