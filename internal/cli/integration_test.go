package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI runs the command with stdin and returns its stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "../.."}, args...)...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// TestCLI_FileInputOutput tests the CLI with file input and output
func TestCLI_FileInputOutput(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{
		"name": "John Doe",
		"age": 30,
		"email": "john.doe@example.com",
		"address": {
			"street": "123 Main St",
			"city": "Anytown",
			"zip": "12345"
		},
		"phones": [
			{"type": "home", "number": "555-1234"},
			{"type": "work", "number": "555-5678"}
		],
		"active": true
	}`
	jsonFile := filepath.Join(tempDir, "test.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(jsonContent), 0644))

	outputFile := filepath.Join(tempDir, "Models.cs")

	_, stderr, err := runCLI(t, "", "-i", jsonFile, "-o", outputFile)
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Contains(t, stderr, "Wrote 3 classes")

	generatedCode, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	code := string(generatedCode)
	assert.Contains(t, code, "// Root myDeserializedClass = JsonConvert.DeserializeObject<Root>(myJsonResponse);")
	assert.Contains(t, code, "namespace Generated")
	assert.Contains(t, code, "public class Root")
	assert.Contains(t, code, "public string Name { get; set; }")
	assert.Contains(t, code, "public int Age { get; set; }")
	assert.Contains(t, code, "public Address Address { get; set; }")
	assert.Contains(t, code, "public List<Phone> Phones { get; set; }")
	assert.Contains(t, code, "public bool Active { get; set; }")

	assert.Contains(t, code, "public class Address")
	assert.Contains(t, code, "public string Zip { get; set; }")
	assert.Contains(t, code, "public class Phone")
	assert.Contains(t, code, "public string Number { get; set; }")
}

// TestCLI_StdinStdout tests the CLI with stdin input and stdout output
func TestCLI_StdinStdout(t *testing.T) {
	output, stderr, err := runCLI(t, `{"name": "Jane Smith", "age": 25, "active": true}`, "--language", "go")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, output, "// Code generated by jsonclassgen. DO NOT EDIT.")
	assert.Contains(t, output, "package main")
	assert.Contains(t, output, "type Root struct")
	assert.Regexp(t, `Name\s+string\s+\x60json:"name"\x60`, output)
	assert.Regexp(t, `Age\s+int\s+\x60json:"age"\x60`, output)
	assert.Regexp(t, `Active\s+bool\s+\x60json:"active"\x60`, output)
}

// TestCLI_MainClassAndPackage tests naming flags
func TestCLI_MainClassAndPackage(t *testing.T) {
	output, stderr, err := runCLI(t, `{"name": "Test User", "email": "test@example.com"}`,
		"-l", "go", "-m", "User", "-p", "models")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, output, "package models")
	assert.Contains(t, output, "type User struct")
	assert.Regexp(t, `Email\s+string\s+\x60json:"email"\x60`, output)
}

// TestCLI_ArrayInput tests the CLI with a JSON array input
func TestCLI_ArrayInput(t *testing.T) {
	jsonContent := `[
		{"id": 1, "name": "Item 1"},
		{"id": 2, "name": "Item 2"},
		{"id": 3}
	]`

	output, stderr, err := runCLI(t, jsonContent, "-l", "go")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, output, "type Root struct")
	assert.Regexp(t, `Id\s+int\s+\x60json:"id"\x60`, output)
	assert.Regexp(t, `Name\s+string\s+\x60json:"name,omitempty"\x60`, output)
	assert.Contains(t, output, "// type Roots []Root")

	output, stderr, err = runCLI(t, jsonContent)
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Contains(t, output, "// List<Root> myDeserializedClass")
}

// TestCLI_NegatedFlags tests that --no-* flags override defaults
func TestCLI_NegatedFlags(t *testing.T) {
	output, stderr, err := runCLI(t, `{"id": 1, "tags": ["a"]}`, "--no-properties", "--no-lists", "--namespace", "Acme.Models")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, output, "namespace Acme.Models")
	assert.Contains(t, output, "public int Id;")
	assert.Contains(t, output, "public string[] Tags;")

	output, stderr, err = runCLI(t, `{"id": 1}`, "-l", "go", "--no-format")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Contains(t, output, "type Root struct")
}

// TestCLI_ConfigFile tests loading a config file with flag precedence
func TestCLI_ConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "jsonclassgen.yml")
	configContent := `language: go
package: fromconfig
main_class: Event
writer:
  use_properties: false
types:
  mappings:
    - pattern: "_id$"
      type: "string"
      comment: "Opaque identifier"
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	output, stderr, err := runCLI(t, `{"event_id": "e1", "count": 2}`, "-c", configFile)
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Contains(t, output, "package fromconfig")
	assert.Contains(t, output, "type Event struct")
	assert.Contains(t, output, "// Opaque identifier")

	output, stderr, err = runCLI(t, `{"event_id": "e1"}`, "-c", configFile, "-p", "fromflag")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Contains(t, output, "package fromflag")
}

// TestCLI_JSONSchema tests schema output
func TestCLI_JSONSchema(t *testing.T) {
	output, stderr, err := runCLI(t, `{"id": 1, "at": "2024-01-02T03:04:05Z"}`, "-l", "jsonschema")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Contains(t, output, `"$ref": "#/$defs/Root"`)
	assert.Contains(t, output, `"format": "date-time"`)
}

// TestCLI_Batch tests newline-delimited samples
func TestCLI_Batch(t *testing.T) {
	input := "{\"id\": 1}\n{\"id\": 2, \"note\": null}\n"

	_, stderr, err := runCLI(t, input, "-l", "go")
	assert.Error(t, err)
	assert.Contains(t, stderr, "multiple JSON values")

	output, stderr, err := runCLI(t, input, "-l", "go", "--batch")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Regexp(t, `Note\s+interface\{\}\s+\x60json:"note,omitempty"\x60`, output)
}

// TestCLI_InvalidJSON tests the CLI with invalid JSON input
func TestCLI_InvalidJSON(t *testing.T) {
	_, stderr, err := runCLI(t, `{"name": "Invalid JSON, "age": 30}`)
	assert.Error(t, err, "CLI should fail with invalid JSON")
	assert.Contains(t, stderr, "JSON parsing error")
	assert.Contains(t, stderr, "<stdin>")
}

// TestCLI_EmptyInput tests the CLI with empty input
func TestCLI_EmptyInput(t *testing.T) {
	_, stderr, err := runCLI(t, "")
	assert.Error(t, err, "CLI should fail with empty input")
	assert.Contains(t, stderr, "empty input")
}

// TestCLI_UnknownLanguage tests config validation
func TestCLI_UnknownLanguage(t *testing.T) {
	output, stderr, err := runCLI(t, `{"a": 1}`, "-l", "cobol")
	assert.Error(t, err)
	assert.Empty(t, output)
	assert.Contains(t, stderr, "Configuration error")
}

// TestCLI_Version tests the version flag
func TestCLI_Version(t *testing.T) {
	output, _, err := runCLI(t, "", "-v")
	require.NoError(t, err)
	assert.Contains(t, output, "jsonclassgen version")
}

// TestCLI_Help tests the help output
func TestCLI_Help(t *testing.T) {
	helpOutput, _, err := runCLI(t, "", "--help")
	require.NoError(t, err)

	assert.Contains(t, helpOutput, "Usage: jsonclassgen")
	assert.Contains(t, helpOutput, "-i, --input")
	assert.Contains(t, helpOutput, "-o, --output")
	assert.Contains(t, helpOutput, "-l, --language")
	assert.Contains(t, helpOutput, "-m, --main-class")
	assert.Contains(t, helpOutput, "--[no-]properties")
}
