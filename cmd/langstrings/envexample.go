package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"langstrings/internal/i18n"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("✅ Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# langstrings Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	fmt.Fprintf(&content, "# Format: %s_<SETTING>=value\n", envPrefix)
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n")
	content.WriteString("# =============================================================================\n\n")

	generateStringsSection(&content, cmd)
	generateServerSection(&content, cmd)
	generateAppSection(&content, cmd)
	generateLoggingSection(&content, cmd)

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.Root().PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}

func generateStringsSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Strings and Overrides\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --language, --strings-file, --overrides-file, --overrides-db\n")

	langDefault := getDefaultValueString(cmd, "language")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")

	fmt.Fprintf(content, "%s=%s                   # Override language: %s (default: %s)\n",
		flagToEnvVar("language"), langDefault, supportedLangs, langDefault)
	fmt.Fprintf(content, "# %s=./strings.json     # Replace the embedded English bundle\n",
		flagToEnvVar("strings-file"))
	fmt.Fprintf(content, "# %s=./overrides.json # Flat JSON object of dotted path to string\n",
		flagToEnvVar("overrides-file"))
	fmt.Fprintf(content, "# %s=./overrides.db     # SQLite store, wins over the overrides file\n",
		flagToEnvVar("overrides-db"))
	content.WriteString("\n")
}

func generateServerSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# HTTP Server\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --server-host, --server-port\n")

	hostDefault := getDefaultValueString(cmd, "server-host")
	portDefault := getDefaultValueString(cmd, "server-port")

	fmt.Fprintf(content, "%s=%s                # Bind address (default: %s)\n",
		flagToEnvVar("server-host"), hostDefault, hostDefault)
	fmt.Fprintf(content, "%s=%s                   # Listen port (default: %s)\n",
		flagToEnvVar("server-port"), portDefault, portDefault)
	content.WriteString("\n")
}

func generateAppSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Rate Limiting and Caching\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --rate-limit-per-minute, --cache-size\n")

	rateDefault := getDefaultValueString(cmd, "rate-limit-per-minute")
	cacheDefault := getDefaultValueString(cmd, "cache-size")

	fmt.Fprintf(content, "%s=%s          # API requests per client per minute, 0=disabled (default: %s)\n",
		flagToEnvVar("rate-limit-per-minute"), rateDefault, rateDefault)
	fmt.Fprintf(content, "%s=%s                    # Rendered subtrees kept in memory (default: %s)\n",
		flagToEnvVar("cache-size"), cacheDefault, cacheDefault)
	content.WriteString("\n")
}

func generateLoggingSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Logging\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --log-level, --log-format\n")

	levelDefault := getDefaultValueString(cmd, "log-level")
	formatDefault := getDefaultValueString(cmd, "log-format")

	fmt.Fprintf(content, "%s=%s                   # debug, info, warn, error (default: %s)\n",
		flagToEnvVar("log-level"), levelDefault, levelDefault)
	fmt.Fprintf(content, "%s=%s                  # json, console (default: %s)\n",
		flagToEnvVar("log-format"), formatDefault, formatDefault)
}
